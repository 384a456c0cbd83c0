package discovery

import (
	"net"
	"strconv"
	"strings"

	"replex/pkg/plextv"
)

// DefaultFallbackURL is the last-resort server address.
const DefaultFallbackURL = "http://127.0.0.1:32400"

// Selection is the outcome of resolving a resource list.
type Selection struct {
	// URL is the base URL to use for the media server.
	URL string

	// Resource is the chosen server, nil when the fallback was used.
	Resource *plextv.Resource

	// Connection is the chosen connection, nil when the fallback was used.
	Connection *plextv.Connection

	// Fallback is set when no server connection qualified.
	Fallback bool

	// Degraded is set by the discovery step when the remote lookup failed
	// and a stored or last-resort address was used instead.
	Degraded bool
}

// Resolver picks a single base URL from a resource list.
// The zero value is ready to use.
type Resolver struct {
	// FallbackURL is returned when nothing qualifies. Defaults to DefaultFallbackURL.
	FallbackURL string

	// ForceLocalHTTP builds local URLs with http regardless of the
	// connection's protocol.
	ForceLocalHTTP bool
}

// Resolve returns the base URL for resources. It never fails.
func (r Resolver) Resolve(resources []plextv.Resource) string {
	return r.Select(resources).URL
}

// Select resolves resources and reports which resource and connection won.
//
// The first server-capable resource is used. Among its connections the first
// local one with an address wins and is rebuilt from its own fields; otherwise
// the first connection is used, by URI when it has one and rebuilt from its
// address when it does not.
func (r Resolver) Select(resources []plextv.Resource) Selection {
	for i := range resources {
		res := &resources[i]
		if !res.IsServer() {
			continue
		}

		for j := range res.Connections {
			conn := &res.Connections[j]
			if conn.Local && strings.TrimSpace(conn.Address) != "" {
				return Selection{
					URL:        buildURL(conn, r.ForceLocalHTTP),
					Resource:   res,
					Connection: conn,
				}
			}
		}

		if len(res.Connections) > 0 {
			conn := &res.Connections[0]
			serverURL := strings.TrimSpace(conn.URI)
			if serverURL == "" && strings.TrimSpace(conn.Address) != "" {
				serverURL = buildURL(conn, false)
			}
			if serverURL != "" {
				return Selection{
					URL:        serverURL,
					Resource:   res,
					Connection: conn,
				}
			}
		}
		break
	}

	return Selection{URL: r.fallback(), Fallback: true}
}

func (r Resolver) fallback() string {
	if r.FallbackURL != "" {
		return r.FallbackURL
	}
	return DefaultFallbackURL
}

// buildURL assembles scheme://address:port from conn's fields. The scheme
// follows the protocol unless forceHTTP is set.
func buildURL(conn *plextv.Connection, forceHTTP bool) string {
	scheme := "http"
	if !forceHTTP && strings.EqualFold(conn.Protocol, "https") {
		scheme = "https"
	}
	host := strings.TrimSpace(conn.Address)
	if conn.Port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(conn.Port))
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host
}
