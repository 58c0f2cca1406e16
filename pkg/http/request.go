package http

import (
	"net"
	"net/http"
	"strings"
)

// ExtractClientIP returns the client IP for audit records. X-Forwarded-For
// and X-Real-IP are honored only when present and parseable; the console
// facade normally sits behind chi's RealIP middleware, so RemoteAddr is the
// usual path.
func ExtractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, ip := range strings.Split(xff, ",") {
			ip = strings.TrimSpace(ip)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	if r.RemoteAddr != "" {
		if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return ip
		}
		return r.RemoteAddr
	}

	return "unknown"
}
