package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replex/internal/authflow"
	"replex/internal/config"
	"replex/internal/credstore"
	"replex/internal/identity"
	"replex/pkg/plextv"
)

// fakePlexTV serves the plex.tv endpoints used by login and discovery. The
// PIN is linked on the second check.
func fakePlexTV(t *testing.T, serverURL string) *httptest.Server {
	t.Helper()
	var checks atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v2/pins", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(plextv.HeaderClientIdentifier))
		_ = json.NewEncoder(w).Encode(plextv.Pin{ID: 7, Code: "wxyz", ExpiresIn: 900})
	})
	mux.HandleFunc("GET /api/v2/pins/7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wxyz", r.URL.Query().Get("code"))
		pin := plextv.Pin{ID: 7, Code: "wxyz"}
		if checks.Add(1) >= 2 {
			pin.AuthToken = "linked-token"
		}
		_ = json.NewEncoder(w).Encode(pin)
	})
	mux.HandleFunc("GET /api/v2/resources", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(plextv.HeaderToken) != "linked-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]plextv.Resource{{
			Name:     "Living Room",
			Provides: "server",
			Connections: []plextv.Connection{
				{Protocol: "http", Address: "10.0.0.5", Port: 32400, URI: serverURL, Local: false},
			},
		}})
	})
	mux.HandleFunc("GET /api/v2/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(plextv.User{ID: 1, Username: "alice"})
	})

	return httptest.NewServer(mux)
}

func newTestApplication(t *testing.T, baseURL string) (*Application, string) {
	t.Helper()
	dir := t.TempDir()

	settings := config.GetDefaultConfig()
	settings.Auth.BaseURL = baseURL
	settings.Auth.PollInterval = 5 * time.Millisecond
	settings.Auth.MaxAttempts = 20

	cfg := NewConfig(false, dir, "1.2.3")
	cfg.Silent = true
	cfg.Settings = &settings

	application, err := NewApplication(cfg)
	require.NoError(t, err)
	return application, dir
}

func TestNewApplication_InitializesState(t *testing.T) {
	application, dir := newTestApplication(t, "https://plex.tv")
	services := application.Services()

	_, err := os.Stat(filepath.Join(dir, identity.FileName))
	require.NoError(t, err)

	clientID, err := services.Identity.GetClientID()
	require.NoError(t, err)
	assert.Equal(t, clientID, services.Device.ClientIdentifier)
	assert.Equal(t, "1.2.3", services.Device.Version, "build version is used when the file sets none")
	assert.Equal(t, config.DefaultProduct, services.Device.Product)
	assert.True(t, services.Credentials.Encrypted())
}

func TestNewApplication_LoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("auth:\n  version: 9.9.9\n  device_name: den\n"), 0600))

	cfg := NewConfig(false, dir, "1.2.3")
	cfg.Silent = true
	application, err := NewApplication(cfg)
	require.NoError(t, err)

	assert.Equal(t, "9.9.9", application.Services().Device.Version)
	assert.Equal(t, "den", application.Services().Device.DeviceName)
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("auth:\n  max_attempts: -1\n"), 0600))

	cfg := NewConfig(false, dir, "")
	cfg.Silent = true
	_, err := NewApplication(cfg)
	assert.Error(t, err)
}

func TestApplication_LoginDiscoverLogout(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/identity", r.URL.Path)
		assert.Equal(t, "linked-token", r.Header.Get(plextv.HeaderToken))
		_, _ = w.Write([]byte(`{"MediaContainer":{"machineIdentifier":"abc","version":"1.40.0"}}`))
	}))
	defer media.Close()

	plexTV := fakePlexTV(t, media.URL)
	defer plexTV.Close()

	application, _ := newTestApplication(t, plexTV.URL)
	services := application.Services()
	clientID, err := services.Identity.GetClientID()
	require.NoError(t, err)

	machine := application.NewAuthMachine()
	machine.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := machine.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, authflow.StateAuthenticated, st.State)
	assert.Equal(t, "WXYZ", st.Code)

	token, ok := services.Credentials.Token()
	require.True(t, ok)
	assert.Equal(t, "linked-token", token)

	sel, err := application.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, media.URL, sel.URL)
	assert.False(t, sel.Degraded)

	name, _ := services.Credentials.UserName()
	assert.Equal(t, "alice", name)

	server, err := application.MediaServer(ctx)
	require.NoError(t, err)
	id, err := server.Identity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", id.MachineIdentifier)

	require.NoError(t, application.Logout())
	assert.False(t, services.Credentials.HasToken())
	_, ok = services.Credentials.ServerURL()
	assert.False(t, ok)

	after, err := services.Identity.GetClientID()
	require.NoError(t, err)
	assert.Equal(t, clientID, after, "client id survives logout")

	_, err = application.MediaServer(ctx)
	assert.True(t, IsUnauthenticated(err))
}

func TestApplication_ResourcesRequiresLogin(t *testing.T) {
	application, _ := newTestApplication(t, "https://plex.tv")

	_, err := application.Resources(context.Background())
	assert.True(t, IsUnauthenticated(err))

	_, err = application.Discover(context.Background())
	assert.True(t, IsUnauthenticated(err))
}

func TestIsUnauthenticated(t *testing.T) {
	assert.True(t, IsUnauthenticated(credstore.ErrNoCredential))
	assert.True(t, IsUnauthenticated(&plextv.Error{Kind: plextv.KindUnauthenticated}))
	assert.False(t, IsUnauthenticated(&plextv.Error{Kind: plextv.KindNetwork}))
	assert.False(t, IsUnauthenticated(nil))
}
