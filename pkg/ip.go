package pkg

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ReadUserIP returns the client IP without the port. Proxy headers win over
// the connection's remote address; only the first X-Forwarded-For hop counts.
func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := strings.TrimSpace(r.Header.Get("X-Real-Ip"))
	if ipAddr == "" {
		forwarded := r.Header.Get("X-Forwarded-For")
		if first, _, _ := strings.Cut(forwarded, ","); first != "" {
			ipAddr = strings.TrimSpace(first)
		}
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		ipAddr = host
	}

	ip := net.ParseIP(ipAddr)
	if ip == nil {
		return "", fmt.Errorf("ip addr %s is invalid", ipAddr)
	}

	return ip.String(), nil
}
