package plextv

import (
	"strings"
	"time"
)

// CapabilityServer is the capability a Resource must provide to be usable as
// a media server.
const CapabilityServer = "server"

// Pin is a link code issued by the authorization service.
// AuthToken stays empty until the account owner links the device.
type Pin struct {
	ID               int          `json:"id"`
	Code             string       `json:"code"`
	QR               string       `json:"qr,omitempty"`
	Product          string       `json:"product,omitempty"`
	Trusted          bool         `json:"trusted,omitempty"`
	ClientIdentifier string       `json:"clientIdentifier,omitempty"`
	Location         *PinLocation `json:"location,omitempty"`
	ExpiresIn        int          `json:"expiresIn,omitempty"`
	CreatedAt        time.Time    `json:"createdAt,omitempty"`
	ExpiresAt        time.Time    `json:"expiresAt,omitempty"`
	AuthToken        string       `json:"authToken,omitempty"`
	NewRegistration  bool         `json:"newRegistration,omitempty"`
}

// PinLocation is the coarse geo information the service attaches to a PIN.
type PinLocation struct {
	Code         string `json:"code,omitempty"`
	Country      string `json:"country,omitempty"`
	City         string `json:"city,omitempty"`
	Subdivisions string `json:"subdivisions,omitempty"`
	Coordinates  string `json:"coordinates,omitempty"`
}

// HasToken reports whether the PIN has been linked to an account.
func (p *Pin) HasToken() bool {
	return p != nil && strings.TrimSpace(p.AuthToken) != ""
}

// DisplayCode returns the code as it should be shown to the user.
func (p *Pin) DisplayCode() string {
	if p == nil {
		return ""
	}
	return strings.ToUpper(p.Code)
}

// Expiry returns the PIN lifetime reported by the service.
func (p *Pin) Expiry() time.Duration {
	if p == nil {
		return 0
	}
	return time.Duration(p.ExpiresIn) * time.Second
}

// Resource is one device registered on the account, typically a server.
type Resource struct {
	Name             string       `json:"name"`
	Product          string       `json:"product,omitempty"`
	ProductVersion   string       `json:"productVersion,omitempty"`
	Provides         string       `json:"provides,omitempty"`
	ClientIdentifier string       `json:"clientIdentifier"`
	Owned            bool         `json:"owned,omitempty"`
	Presence         bool         `json:"presence,omitempty"`
	Connections      []Connection `json:"connections"`
}

// Capabilities returns the capability set advertised in Provides.
func (r Resource) Capabilities() []string {
	if r.Provides == "" {
		return nil
	}
	var caps []string
	for _, c := range strings.Split(r.Provides, ",") {
		if c = strings.TrimSpace(c); c != "" {
			caps = append(caps, c)
		}
	}
	return caps
}

// HasCapability reports whether the resource advertises capability.
func (r Resource) HasCapability(capability string) bool {
	for _, c := range r.Capabilities() {
		if strings.EqualFold(c, capability) {
			return true
		}
	}
	return false
}

// IsServer reports whether the resource can serve media.
func (r Resource) IsServer() bool {
	return r.HasCapability(CapabilityServer)
}

// Connection is one network path to a Resource.
type Connection struct {
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	URI      string `json:"uri"`
	Local    bool   `json:"local"`
	Relay    bool   `json:"relay,omitempty"`
	IPv6     bool   `json:"IPv6,omitempty"`
}

// User is the account a token belongs to.
type User struct {
	ID       int    `json:"id"`
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Thumb    string `json:"thumb,omitempty"`
}
