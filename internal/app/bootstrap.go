package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"replex/internal/authflow"
	"replex/internal/config"
	"replex/internal/credstore"
	"replex/internal/discovery"
	"replex/internal/mediaserver"
	"replex/pkg/logging"
	"replex/pkg/plextv"
)

// Application wires the core components together from configuration.
//
// Example usage:
//
//	application, err := app.NewApplication(app.NewConfig(false, "", version))
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	machine := application.NewAuthMachine()
//	machine.Start()
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance with the provided configuration.
// This function performs the complete bootstrap sequence:
//
//  1. Loads the configuration file (unless cfg.Settings is preset)
//  2. Configures logging from the file and the debug flag
//  3. Initializes the identity, credential store and plex.tv client
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = config.GetDefaultConfigPathOrPanic()
	}

	if cfg.Settings == nil {
		settings, err := config.LoadConfig(cfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", cfg.ConfigPath, err)
		}
		cfg.Settings = &settings
	}

	initLogging(cfg)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

func initLogging(cfg *Config) {
	level, err := logging.ParseLevel(cfg.Settings.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}

	var out io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		out = cfg.LogOutput
	}
	if cfg.Silent {
		out = io.Discard
	}
	logging.InitForCLI(level, out)
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Settings returns the loaded configuration.
func (a *Application) Settings() config.Config {
	return *a.config.Settings
}

// NewAuthMachine creates an authorization flow writing to the credential store.
func (a *Application) NewAuthMachine() *authflow.Machine {
	auth := a.config.Settings.Auth
	return authflow.NewMachine(a.services.PlexTV, a.services.Credentials, authflow.Config{
		PollInterval: auth.PollInterval,
		MaxAttempts:  auth.MaxAttempts,
		MaxRetries:   auth.MaxRetries,
	}, authflow.WithLogger(logging.For("AuthFlow")))
}

// Discover runs the discovery step and stores the selected server.
func (a *Application) Discover(ctx context.Context) (discovery.Selection, error) {
	return a.services.Discoverer.Discover(ctx)
}

// Resources lists the account's resources without selecting one.
func (a *Application) Resources(ctx context.Context) ([]plextv.Resource, error) {
	token, ok := a.services.Credentials.Token()
	if !ok {
		return nil, &plextv.Error{Kind: plextv.KindUnauthenticated, Op: "get resources"}
	}
	return a.services.PlexTV.GetResources(ctx, token)
}

// MediaServer returns a client for the stored server, running discovery
// first when no server has been selected yet.
func (a *Application) MediaServer(ctx context.Context) (*mediaserver.Client, error) {
	if !a.services.Credentials.HasToken() {
		return nil, &plextv.Error{Kind: plextv.KindUnauthenticated, Op: "connect"}
	}

	serverURL, ok := a.services.Credentials.ServerURL()
	if !ok || serverURL == "" {
		sel, err := a.Discover(ctx)
		if err != nil {
			return nil, err
		}
		serverURL = sel.URL
	}

	return mediaserver.NewClient(serverURL, a.services.Credentials.TokenSource(), a.services.Device,
		mediaserver.WithHTTPClient(a.services.HTTPClient),
		mediaserver.WithLogger(logging.For("MediaServer")),
	)
}

// Logout removes the stored credentials. The client identifier is kept so
// the next login registers the same device.
func (a *Application) Logout() error {
	if err := a.services.Credentials.Clear(); err != nil {
		return err
	}
	logging.Info("Auth", "Logged out")
	return nil
}

// IsUnauthenticated reports whether err means a login is required.
func IsUnauthenticated(err error) bool {
	return plextv.IsKind(err, plextv.KindUnauthenticated) || errors.Is(err, credstore.ErrNoCredential)
}
