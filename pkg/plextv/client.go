package plextv

import (
	"bytes"
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
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the authorization service.
	DefaultBaseURL = "https://plex.tv"

	// DefaultHTTPTimeout bounds each request, connect and read included.
	DefaultHTTPTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Client talks to the authorization service. It holds configuration only;
// none of its operations mutate local state.
type Client struct {
	httpClient   *http.Client
	logger       *slog.Logger
	baseURL      string
	device       Device
	strongPin    bool
	includeHTTPS bool
	includeRelay bool
	limiter      *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBaseURL points the client at a different authorization service.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithStrongPin requests long codes meant for QR/automatic flows instead of
// the short human-enterable ones.
func WithStrongPin(strong bool) ClientOption {
	return func(c *Client) {
		c.strongPin = strong
	}
}

// WithConnectionCandidates controls which connection kinds GetResources asks
// the service to include.
func WithConnectionCandidates(includeHTTPS, includeRelay bool) ClientOption {
	return func(c *Client) {
		c.includeHTTPS = includeHTTPS
		c.includeRelay = includeRelay
	}
}

// WithRateLimit spaces outgoing requests with limiter. Nil disables limiting.
func WithRateLimit(limiter *rate.Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient creates a client that identifies itself as device.
func NewClient(device Device, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: DefaultHTTPTimeout},
		logger:       slog.Default(),
		baseURL:      DefaultBaseURL,
		device:       device,
		includeHTTPS: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Device returns the identity the client sends with every request.
func (c *Client) Device() Device {
	return c.device
}

type pinRequest struct {
	Strong bool `json:"strong"`
}

// GeneratePin asks the service for a new link code.
func (c *Client) GeneratePin(ctx context.Context) (*Pin, error) {
	const op = "generate pin"

	body, err := json.Marshal(pinRequest{Strong: c.strongPin})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v2/pins", nil, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var pin Pin
	if err := c.do(req, op, false, &pin); err != nil {
		return nil, err
	}
	if pin.ID == 0 || pin.Code == "" {
		return nil, &Error{Kind: KindParse, Op: op, Err: errors.New("response carries no pin id or code")}
	}

	c.logger.Debug("Generated PIN",
		"pin_id", pin.ID,
		"expires_in", pin.ExpiresIn)

	return &pin, nil
}

// CheckPin returns the current state of a PIN. AuthToken is set on the
// result once the account has linked the device.
func (c *Client) CheckPin(ctx context.Context, id int, code string) (*Pin, error) {
	const op = "check pin"

	query := url.Values{"code": {code}}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v2/pins/"+strconv.Itoa(id), query, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var pin Pin
	if err := c.do(req, op, false, &pin); err != nil {
		return nil, err
	}

	return &pin, nil
}

// GetResources lists the devices registered on the account that owns token.
func (c *Client) GetResources(ctx context.Context, token string) ([]Resource, error) {
	const op = "get resources"

	if strings.TrimSpace(token) == "" {
		return nil, &Error{Kind: KindUnauthenticated, Op: op, Err: errors.New("no token")}
	}

	query := url.Values{
		"includeHttps": {boolFlag(c.includeHTTPS)},
		"includeRelay": {boolFlag(c.includeRelay)},
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v2/resources", query, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set(HeaderToken, token)

	var resources []Resource
	if err := c.do(req, op, true, &resources); err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched resources", "count", len(resources))
	return resources, nil
}

// GetUser returns the account that owns token.
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	const op = "get user"

	if strings.TrimSpace(token) == "" {
		return nil, &Error{Kind: KindUnauthenticated, Op: op, Err: errors.New("no token")}
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v2/user", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set(HeaderToken, token)

	var user User
	if err := c.do(req, op, true, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// newRequest builds a request against the service with identification headers.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	c.device.Apply(req.Header)

	return req, nil
}

// do sends req and decodes a successful JSON response into out. When
// authenticated is set, 401 and 403 are reported as KindUnauthenticated.
func (c *Client) do(req *http.Request, op string, authenticated bool, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			if ctxErr := req.Context().Err(); ctxErr != nil {
				return fmt.Errorf("%s: %w", op, ctxErr)
			}
			return &Error{Kind: KindNetwork, Op: op, Err: err}
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("plex.tv request completed",
		"op", op,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode)

	if authenticated && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return &Error{Kind: KindUnauthenticated, Op: op, StatusCode: resp.StatusCode, Err: errors.New("token rejected")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindServer, Op: op, StatusCode: resp.StatusCode}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return &Error{Kind: KindParse, Op: op, Err: errors.New("empty response body")}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindParse, Op: op, Err: err}
	}

	return nil
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
