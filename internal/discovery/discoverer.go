package discovery

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"replex/pkg/plextv"
)

// ResourceClient is the subset of the plex.tv client used for discovery.
type ResourceClient interface {
	GetResources(ctx context.Context, token string) ([]plextv.Resource, error)
	GetUser(ctx context.Context, token string) (*plextv.User, error)
}

// CredentialStore is the subset of the credential store used for discovery.
type CredentialStore interface {
	Token() (string, bool)
	ServerURL() (string, bool)
	SaveServerURL(serverURL string) error
	SaveUserName(name string) error
}

// Discoverer runs the discovery step that follows a successful login:
// it looks up the account's servers and stores the selected base URL.
type Discoverer struct {
	client   ResourceClient
	store    CredentialStore
	resolver Resolver
	logger   *slog.Logger

	group singleflight.Group
}

// Option configures the Discoverer.
type Option func(*Discoverer)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// WithResolver replaces the default Resolver.
func WithResolver(r Resolver) Option {
	return func(d *Discoverer) {
		d.resolver = r
	}
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(client ResourceClient, store CredentialStore, opts ...Option) *Discoverer {
	d := &Discoverer{
		client: client,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover resolves the server base URL for the stored credential.
//
// A missing or rejected token is returned as an Unauthenticated error. Other
// remote failures do not fail the call: the previously stored server URL, or
// the resolver's fallback, is returned with Degraded set. Concurrent calls
// share a single lookup.
func (d *Discoverer) Discover(ctx context.Context) (Selection, error) {
	v, err, shared := d.group.Do("discover", func() (interface{}, error) {
		return d.discover(ctx)
	})
	if shared {
		d.logger.Debug("Discovery result shared with concurrent caller")
	}
	if err != nil {
		return Selection{}, err
	}
	return v.(Selection), nil
}

func (d *Discoverer) discover(ctx context.Context) (Selection, error) {
	token, ok := d.store.Token()
	if !ok || token == "" {
		return Selection{}, &plextv.Error{Kind: plextv.KindUnauthenticated, Op: "discover"}
	}

	resources, err := d.client.GetResources(ctx, token)
	if err != nil {
		if plextv.IsKind(err, plextv.KindUnauthenticated) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Selection{}, err
		}
		return d.degraded(err), nil
	}

	sel := d.resolver.Select(resources)
	if sel.Resource != nil {
		d.logger.Info("Server selected",
			"name", sel.Resource.Name,
			"url", sel.URL,
			"local", sel.Connection.Local,
		)
	} else {
		d.logger.Warn("No server resource found, using fallback address", "url", sel.URL, "resources", len(resources))
	}

	if err := d.store.SaveServerURL(sel.URL); err != nil {
		return Selection{}, err
	}

	// The account name is informational; a failure here does not affect the selection.
	if user, err := d.client.GetUser(ctx, token); err != nil {
		d.logger.Debug("Failed to fetch account", "error", err.Error())
	} else if user.Username != "" {
		if err := d.store.SaveUserName(user.Username); err != nil {
			d.logger.Warn("Failed to store account name", "error", err.Error())
		}
	}

	return sel, nil
}

func (d *Discoverer) degraded(cause error) Selection {
	if stored, ok := d.store.ServerURL(); ok && stored != "" {
		d.logger.Warn("Server discovery failed, using stored server URL",
			"url", stored,
			"kind", plextv.KindOf(cause).String(),
			"error", cause.Error(),
		)
		return Selection{URL: stored, Degraded: true}
	}

	sel := d.resolver.Select(nil)
	sel.Degraded = true
	d.logger.Warn("Server discovery failed, using fallback address",
		"url", sel.URL,
		"kind", plextv.KindOf(cause).String(),
		"error", cause.Error(),
	)
	return sel
}
