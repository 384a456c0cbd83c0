package plextv

import "net/http"

// Header names understood by plex.tv and media servers.
const (
	HeaderProduct          = "X-Plex-Product"
	HeaderVersion          = "X-Plex-Version"
	HeaderClientIdentifier = "X-Plex-Client-Identifier"
	HeaderPlatform         = "X-Plex-Platform"
	HeaderPlatformVersion  = "X-Plex-Platform-Version"
	HeaderDevice           = "X-Plex-Device"
	HeaderDeviceName       = "X-Plex-Device-Name"
	HeaderToken            = "X-Plex-Token"
)

// Device describes this installation to the remote service. The service uses
// ClientIdentifier to associate a PIN with the device that requested it, so
// it must stay stable across the whole authorization flow.
type Device struct {
	Product          string
	Version          string
	ClientIdentifier string
	Platform         string
	PlatformVersion  string
	Device           string
	DeviceName       string
}

// Apply sets the identification headers on h. Empty fields are skipped.
func (d Device) Apply(h http.Header) {
	set := func(key, value string) {
		if value != "" {
			h.Set(key, value)
		}
	}
	set(HeaderProduct, d.Product)
	set(HeaderVersion, d.Version)
	set(HeaderClientIdentifier, d.ClientIdentifier)
	set(HeaderPlatform, d.Platform)
	set(HeaderPlatformVersion, d.PlatformVersion)
	set(HeaderDevice, d.Device)
	set(HeaderDeviceName, d.DeviceName)
	h.Set("Accept", "application/json")
}
