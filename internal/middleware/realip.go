package middleware

import (
	"net"
	"net/http"
	"strings"
)

// RealIP rewrites r.RemoteAddr to the client address recorded by the proxies
// in front of the service. hops is how many proxies append to
// X-Forwarded-For; the client is the entry hops places from the end. With
// hops <= 0 the header is ignored and the socket peer is kept.
func RealIP(hops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hops <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := forwardedClient(r.Header.Values("X-Forwarded-For"), hops); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

// forwardedClient returns the entry written by the outermost trusted proxy,
// or "" when the chain is shorter than hops or that entry is not an IP.
func forwardedClient(headers []string, hops int) string {
	var entries []string
	for _, h := range headers {
		for _, part := range strings.Split(h, ",") {
			if part = strings.TrimSpace(part); part != "" {
				entries = append(entries, part)
			}
		}
	}
	if len(entries) < hops {
		return ""
	}
	ip := net.ParseIP(entries[len(entries)-hops])
	if ip == nil {
		return ""
	}
	return ip.String()
}

// remoteHost strips the port from r.RemoteAddr.
func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
