package plextv

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testDevice() Device {
	return Device{
		Product:          "RePlex",
		Version:          "1.0.0",
		ClientIdentifier: "client-123",
		Platform:         "Linux",
	}
}

func newTestClient(server *httptest.Server, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithHTTPClient(server.Client()), WithBaseURL(server.URL)}, opts...)
	return NewClient(testDevice(), opts...)
}

func TestNewClient(t *testing.T) {
	t.Run("creates client with defaults", func(t *testing.T) {
		c := NewClient(testDevice())
		if c.httpClient == nil {
			t.Error("expected httpClient to be set")
		}
		if c.httpClient.Timeout != DefaultHTTPTimeout {
			t.Errorf("expected timeout %v, got %v", DefaultHTTPTimeout, c.httpClient.Timeout)
		}
		if c.baseURL != DefaultBaseURL {
			t.Errorf("expected base URL %s, got %s", DefaultBaseURL, c.baseURL)
		}
		if !c.includeHTTPS || c.includeRelay {
			t.Error("expected https candidates on and relay candidates off by default")
		}
	})

	t.Run("applies options", func(t *testing.T) {
		customHTTP := &http.Client{Timeout: 5 * time.Second}
		c := NewClient(testDevice(),
			WithHTTPClient(customHTTP),
			WithBaseURL("https://auth.example.com/"),
			WithStrongPin(true),
			WithConnectionCandidates(false, true),
		)
		if c.httpClient != customHTTP {
			t.Error("expected custom httpClient to be set")
		}
		if c.baseURL != "https://auth.example.com" {
			t.Errorf("expected trailing slash to be trimmed, got %s", c.baseURL)
		}
		if !c.strongPin {
			t.Error("expected strong pin to be set")
		}
		if c.includeHTTPS || !c.includeRelay {
			t.Error("expected connection candidates to be applied")
		}
	})
}

func TestGeneratePin(t *testing.T) {
	t.Run("posts request with identifying headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/v2/pins" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if got := r.Header.Get(HeaderClientIdentifier); got != "client-123" {
				t.Errorf("expected client identifier header, got %q", got)
			}
			if got := r.Header.Get(HeaderProduct); got != "RePlex" {
				t.Errorf("expected product header, got %q", got)
			}
			if got := r.Header.Get("Accept"); got != "application/json" {
				t.Errorf("expected Accept application/json, got %q", got)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if strong, ok := body["strong"].(bool); !ok || strong {
				t.Errorf("expected strong=false in body, got %v", body["strong"])
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":42,"code":"ab12","qr":"https://plex.tv/api/v2/pins/qr/ab12","expiresIn":900,"authToken":null}`))
		}))
		defer server.Close()

		pin, err := newTestClient(server).GeneratePin(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pin.ID != 42 || pin.Code != "ab12" {
			t.Errorf("unexpected pin %+v", pin)
		}
		if pin.HasToken() {
			t.Error("expected fresh pin to carry no token")
		}
		if pin.DisplayCode() != "AB12" {
			t.Errorf("expected display code AB12, got %s", pin.DisplayCode())
		}
		if pin.Expiry() != 15*time.Minute {
			t.Errorf("expected 15m expiry, got %v", pin.Expiry())
		}
	})

	t.Run("non-2xx is a server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newTestClient(server).GeneratePin(context.Background())
		var pe *Error
		if !errors.As(err, &pe) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if pe.Kind != KindServer || pe.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected server error with status 503, got %v", pe)
		}
	})

	t.Run("malformed body is a parse error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "not-a-number"`))
		}))
		defer server.Close()

		_, err := newTestClient(server).GeneratePin(context.Background())
		if !IsKind(err, KindParse) {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("response without code is a parse error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": 7}`))
		}))
		defer server.Close()

		_, err := newTestClient(server).GeneratePin(context.Background())
		if !IsKind(err, KindParse) {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("transport failure is a network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := newTestClient(server)
		server.Close()

		_, err := client.GeneratePin(context.Background())
		if !IsKind(err, KindNetwork) {
			t.Errorf("expected network error, got %v", err)
		}
		if !IsTransient(err) {
			t.Error("expected network error to be transient")
		}
	})
}

func TestCheckPin(t *testing.T) {
	t.Run("sends id and code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v2/pins/42" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("code"); got != "ab12" {
				t.Errorf("expected code query ab12, got %q", got)
			}
			if got := r.Header.Get(HeaderClientIdentifier); got != "client-123" {
				t.Errorf("expected client identifier header, got %q", got)
			}
			w.Write([]byte(`{"id":42,"code":"ab12","authToken":"secret-token"}`))
		}))
		defer server.Close()

		pin, err := newTestClient(server).CheckPin(context.Background(), 42, "ab12")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !pin.HasToken() || pin.AuthToken != "secret-token" {
			t.Errorf("expected linked pin, got %+v", pin)
		}
	})

	t.Run("cancelled context is not a network error", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := newTestClient(server).CheckPin(ctx, 1, "x")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if IsKind(err, KindNetwork) {
			t.Error("cancellation must not be reported as a network error")
		}
	})
}

func TestGetResources(t *testing.T) {
	t.Run("decodes resources and sends token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v2/resources" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get(HeaderToken); got != "tok" {
				t.Errorf("expected token header, got %q", got)
			}
			if r.URL.Query().Get("includeHttps") != "1" || r.URL.Query().Get("includeRelay") != "0" {
				t.Errorf("unexpected candidate flags %s", r.URL.RawQuery)
			}
			w.Write([]byte(`[
				{"name":"Living Room","provides":"server,player","clientIdentifier":"srv-1","connections":[
					{"protocol":"https","address":"1.2.3.4","port":32400,"uri":"https://1-2-3-4.plex.direct:32400","local":false},
					{"protocol":"http","address":"10.0.0.5","port":32400,"uri":"http://10.0.0.5:32400","local":true}
				]},
				{"name":"Phone","provides":"player","clientIdentifier":"phone-1","connections":[]}
			]`))
		}))
		defer server.Close()

		resources, err := newTestClient(server).GetResources(context.Background(), "tok")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(resources) != 2 {
			t.Fatalf("expected 2 resources, got %d", len(resources))
		}
		if !resources[0].IsServer() || resources[1].IsServer() {
			t.Error("expected only the first resource to be a server")
		}
		if len(resources[0].Connections) != 2 || !resources[0].Connections[1].Local {
			t.Errorf("unexpected connections %+v", resources[0].Connections)
		}
	})

	t.Run("empty token is unauthenticated without a request", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		_, err := newTestClient(server).GetResources(context.Background(), "  ")
		if !IsKind(err, KindUnauthenticated) {
			t.Errorf("expected unauthenticated, got %v", err)
		}
		if called {
			t.Error("expected no request for an empty token")
		}
	})

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run("rejected token "+http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			_, err := newTestClient(server).GetResources(context.Background(), "revoked")
			if !IsKind(err, KindUnauthenticated) {
				t.Errorf("expected unauthenticated, got %v", err)
			}
			if IsTransient(err) {
				t.Error("expected unauthenticated not to be transient")
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/user" || r.Header.Get(HeaderToken) != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":1,"uuid":"u-1","username":"alice","title":"Alice","email":"alice@example.com","authToken":"tok"}`))
	}))
	defer server.Close()

	user, err := newTestClient(server).GetUser(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("expected username alice, got %s", user.Username)
	}

	_, err = newTestClient(server).GetUser(context.Background(), "other")
	if !IsKind(err, KindUnauthenticated) {
		t.Errorf("expected unauthenticated, got %v", err)
	}
}

func TestError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := &Error{Kind: KindNetwork, Op: "check pin", Err: underlying}

	if !errors.Is(err, underlying) {
		t.Error("expected Unwrap to expose the underlying error")
	}
	if !strings.Contains(err.Error(), "check pin: network_error") {
		t.Errorf("unexpected message %q", err.Error())
	}

	timeout := NewTimeoutError(150)
	if KindOf(timeout) != KindTimeout {
		t.Errorf("expected timeout kind, got %s", KindOf(timeout))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("expected plain errors to have unknown kind")
	}
	if ErrorKind(99).String() != "unknown" {
		t.Error("expected out of range kind to stringify as unknown")
	}
}

func TestRateLimit(t *testing.T) {
	t.Run("request waits for the limiter", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_ = json.NewEncoder(w).Encode(Pin{ID: 1, Code: "abcd"})
		}))
		defer server.Close()

		c := newTestClient(server, WithRateLimit(rate.NewLimiter(rate.Inf, 1)))
		for i := 0; i < 3; i++ {
			if _, err := c.CheckPin(context.Background(), 1, "abcd"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if hits.Load() != 3 {
			t.Errorf("expected 3 requests, got %d", hits.Load())
		}
	})

	t.Run("refused wait is a network error and sends nothing", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		c := newTestClient(server, WithRateLimit(rate.NewLimiter(1, 0)))
		_, err := c.GeneratePin(context.Background())
		if !IsKind(err, KindNetwork) {
			t.Errorf("expected network error, got %v", err)
		}
		if hits.Load() != 0 {
			t.Errorf("expected no request, got %d", hits.Load())
		}
	})

	t.Run("cancelled wait reports the context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
		limiter.Allow()
		c := newTestClient(server, WithRateLimit(limiter))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.GeneratePin(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
