package plextv

import (
	"net/http"
	"testing"
)

func TestResource_Capabilities(t *testing.T) {
	tests := []struct {
		name     string
		provides string
		isServer bool
		count    int
	}{
		{"server only", "server", true, 1},
		{"mixed with spaces", "client, server ,player", true, 3},
		{"uppercase", "SERVER", true, 1},
		{"player only", "player", false, 1},
		{"empty", "", false, 0},
		{"similar name", "servers", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resource{Provides: tt.provides}
			if got := r.IsServer(); got != tt.isServer {
				t.Errorf("IsServer() = %v, expected %v", got, tt.isServer)
			}
			if got := len(r.Capabilities()); got != tt.count {
				t.Errorf("len(Capabilities()) = %d, expected %d", got, tt.count)
			}
		})
	}
}

func TestPin_NilSafe(t *testing.T) {
	var p *Pin
	if p.HasToken() {
		t.Error("nil pin must not have a token")
	}
	if p.DisplayCode() != "" {
		t.Error("nil pin must have an empty display code")
	}

	blank := &Pin{AuthToken: "   "}
	if blank.HasToken() {
		t.Error("whitespace token must not count as linked")
	}
}

func TestDevice_Apply(t *testing.T) {
	h := http.Header{}
	Device{Product: "RePlex", ClientIdentifier: "abc", DeviceName: "Den TV"}.Apply(h)

	if h.Get(HeaderProduct) != "RePlex" || h.Get(HeaderClientIdentifier) != "abc" || h.Get(HeaderDeviceName) != "Den TV" {
		t.Errorf("unexpected headers %v", h)
	}
	if _, ok := h[HeaderPlatform]; ok {
		t.Error("expected empty fields to be skipped")
	}
	if h.Get("Accept") != "application/json" {
		t.Error("expected Accept header")
	}
}
