package httputil

import (
	"net"
	"net/http"
)

// ClientIP is the client host without its port. chi's RealIP middleware has
// already replaced RemoteAddr when a trusted proxy header is present.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
