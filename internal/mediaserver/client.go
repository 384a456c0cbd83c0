package mediaserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"replex/pkg/plextv"
)

const maxResponseBytes = 4 << 20

// Client talks to a single media server. It is constructed explicitly with
// its base URL, token source and device, so independent clients never share
// state.
type Client struct {
	baseURL    string
	source     oauth2.TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client whose transport and timeout are used.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, source oauth2.TokenSource, device plextv.Device, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}
	if source == nil {
		return nil, errors.New("token source is required")
	}

	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	base := http.DefaultTransport
	timeout := plextv.DefaultHTTPTimeout
	if o.httpClient != nil {
		if o.httpClient.Transport != nil {
			base = o.httpClient.Transport
		}
		timeout = o.httpClient.Timeout
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		source:  source,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &transport{
				base:      base,
				source:    source,
				device:    device,
				sessionID: uuid.NewString(),
			},
		},
		logger: o.logger,
	}, nil
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Identity describes the server answering at the base URL.
type Identity struct {
	MachineIdentifier string `json:"machineIdentifier"`
	Version           string `json:"version"`
	Claimed           bool   `json:"claimed"`
}

// Section is a library section.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Identity fetches the server's identity. It doubles as a reachability check.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	var resp struct {
		MediaContainer Identity `json:"MediaContainer"`
	}
	if err := c.get(ctx, "server identity", "/identity", &resp); err != nil {
		return nil, err
	}
	return &resp.MediaContainer, nil
}

// Sections lists the server's library sections.
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	var resp struct {
		MediaContainer struct {
			Directory []Section `json:"Directory"`
		} `json:"MediaContainer"`
	}
	if err := c.get(ctx, "library sections", "/library/sections", &resp); err != nil {
		return nil, err
	}
	return resp.MediaContainer.Directory, nil
}

// ImageURL returns a URL that loads the image at path with the token
// embedded. Width and height are added when positive. An empty path yields "".
func (c *Client) ImageURL(path string, width, height int) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}

	q := url.Values{}
	if width > 0 {
		q.Set("width", strconv.Itoa(width))
	}
	if height > 0 {
		q.Set("height", strconv.Itoa(height))
	}
	return c.tokenURL(path, q)
}

// DirectPlayURL returns a URL that streams the media part key unmodified.
func (c *Client) DirectPlayURL(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("media key is required")
	}
	return c.tokenURL(key, url.Values{})
}

// tokenURL builds base+path with the current token as a query parameter,
// for consumers such as players that cannot set headers.
func (c *Client) tokenURL(path string, q url.Values) (string, error) {
	tok, err := c.source.Token()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	q.Set(plextv.HeaderToken, tok.AccessToken)
	return c.baseURL + path + "?" + q.Encode(), nil
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		var tokErr *tokenError
		if errors.As(err, &tokErr) {
			return &plextv.Error{Kind: plextv.KindUnauthenticated, Op: op, Err: tokErr.err}
		}
		return &plextv.Error{Kind: plextv.KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Media server request completed", "op", op, "path", path, "status", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &plextv.Error{Kind: plextv.KindUnauthenticated, Op: op, StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &plextv.Error{Kind: plextv.KindServer, Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return &plextv.Error{Kind: plextv.KindParse, Op: op, Err: err}
	}
	return nil
}
