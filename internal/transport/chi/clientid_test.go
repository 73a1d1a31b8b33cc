package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientID(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.7:51234", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"198.51.100.2", "198.51.100.2"}, // rewritten by RealIP, no port
		{"", ""},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.RemoteAddr = tc.remoteAddr
		if got := ClientID(req); got != tc.want {
			t.Errorf("ClientID(%q) = %q, want %q", tc.remoteAddr, got, tc.want)
		}
	}
}
