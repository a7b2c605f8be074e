package http

import (
	"net"
	stdhttp "net/http"
	"net/netip"
	"strings"
)

const unknownIP = "Unknown"

// clientIP derives the address reported in SOS alerts. Proxy headers win in
// this order: first X-Forwarded-For hop, X-Real-IP, CF-Connecting-IP. The
// socket address is the fallback, with IPv4-mapped IPv6 unwrapped.
func clientIP(r *stdhttp.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if cf := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cf != "" {
		return cf
	}
	return remoteIP(r.RemoteAddr)
}

func remoteIP(remoteAddr string) string {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	if host == "" {
		return unknownIP
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().String()
	}
	return host
}
