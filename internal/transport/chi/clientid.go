package chi

import (
	"net"
	"net/http"
)

// ClientID identifies the caller by the host part of the request address.
// With middleware.RealIP in front, RemoteAddr already carries the forwarded IP.
func ClientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
