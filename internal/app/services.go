package app

import (
	"fmt"
	"net/http"
	"path/filepath"

	"replex/internal/credstore"
	"replex/internal/discovery"
	"replex/internal/identity"
	"replex/pkg/logging"
	"replex/pkg/plextv"

	"golang.org/x/time/rate"
)

// Services holds the components built from configuration.
type Services struct {
	// Identity owns the installation's client identifier.
	Identity *identity.Store

	// Credentials is the encrypted store for token, server URL and user name.
	Credentials *credstore.Store

	// Device is sent with every request to plex.tv and the media server.
	Device plextv.Device

	// HTTPClient is shared by all outbound clients.
	HTTPClient *http.Client

	// PlexTV is the plex.tv protocol client.
	PlexTV *plextv.Client

	// Discoverer runs server discovery after login.
	Discoverer *discovery.Discoverer
}

// InitializeServices creates every component in dependency order: the
// identity first, since the device headers need the client identifier.
func InitializeServices(cfg *Config) (*Services, error) {
	settings := cfg.Settings

	stateDir := settings.Storage.Dir
	if stateDir == "" {
		stateDir = cfg.ConfigPath
	}
	stateDir = filepath.Clean(stateDir)

	ids := identity.NewStore(stateDir, identity.WithLogger(logging.For("Identity")))
	clientID, err := ids.GetClientID()
	if err != nil {
		return nil, fmt.Errorf("failed to load client identifier: %w", err)
	}

	creds, err := credstore.Open(credstore.Config{
		Dir:               stateDir,
		DisableEncryption: settings.Storage.DisableEncryption,
	}, credstore.WithLogger(logging.For("CredStore")))
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	version := settings.Auth.Version
	if version == "" {
		version = cfg.Version
	}
	device := plextv.Device{
		Product:          settings.Auth.Product,
		Version:          version,
		ClientIdentifier: clientID,
		Platform:         settings.Auth.Platform,
		PlatformVersion:  settings.Auth.PlatformVersion,
		Device:           settings.Auth.Device,
		DeviceName:       settings.Auth.DeviceName,
	}

	httpClient := &http.Client{Timeout: settings.HTTP.Timeout}

	var limiter *rate.Limiter
	if settings.HTTP.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.HTTP.RateLimit), settings.HTTP.RateBurst)
	}

	plexTV := plextv.NewClient(device,
		plextv.WithHTTPClient(httpClient),
		plextv.WithRateLimit(limiter),
		plextv.WithBaseURL(settings.Auth.BaseURL),
		plextv.WithStrongPin(settings.Auth.StrongPin),
		plextv.WithConnectionCandidates(settings.Discovery.IncludeHTTPS, settings.Discovery.IncludeRelay),
		plextv.WithLogger(logging.For("PlexTV")),
	)

	discoverer := discovery.NewDiscoverer(plexTV, creds,
		discovery.WithResolver(discovery.Resolver{
			FallbackURL:    settings.Discovery.FallbackURL,
			ForceLocalHTTP: settings.Discovery.ForceLocalHTTP,
		}),
		discovery.WithLogger(logging.For("Discovery")),
	)

	logging.Debug("Bootstrap", "Services initialized (state dir %s, encrypted credentials: %t)", stateDir, creds.Encrypted())

	return &Services{
		Identity:    ids,
		Credentials: creds,
		Device:      device,
		HTTPClient:  httpClient,
		PlexTV:      plexTV,
		Discoverer:  discoverer,
	}, nil
}
