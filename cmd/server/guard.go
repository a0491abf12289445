package main

import (
	"net"
	"net/http"
	"strings"
)

// loopbackHosts is the Host allow-list used when the API listens on loopback.
var loopbackHosts = []string{"localhost", "127.0.0.1", "::1"}

// isLoopback reports whether addr (host:port) binds to a loopback interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// hostGuard rejects requests whose Host header is not in allowed. A page on
// another origin can resolve its own name to 127.0.0.1; checking Host keeps it
// from driving the local API.
func hostGuard(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]bool, len(allowed))
	for _, h := range allowed {
		set[strings.ToLower(h)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := r.Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			host = strings.Trim(strings.ToLower(host), "[]")
			if !set[host] {
				http.Error(w, "forbidden host", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
