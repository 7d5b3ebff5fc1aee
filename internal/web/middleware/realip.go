package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP rewrites RemoteAddr from X-Real-IP or the first
// X-Forwarded-For entry, but only for connections coming from one of the
// trusted proxy ranges. Entries may be CIDRs or single addresses.
// Otherwise RemoteAddr is reduced to the bare connection IP.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	prefixes := parseTrusted(trusted)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote, ok := connAddr(r.RemoteAddr)
			if ok {
				r.RemoteAddr = remote.String()
			}

			if ok && isTrusted(remote, prefixes) {
				if client, found := forwardedFor(r); found {
					r.RemoteAddr = client.String()
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseTrusted(entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		slog.Warn("realip: invalid trusted proxy, skipping", "entry", entry)
	}
	return prefixes
}

// connAddr parses "host:port" or a bare IP.
func connAddr(remote string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	addr, err := netip.ParseAddr(remote)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrusted(addr netip.Addr, prefixes []netip.Prefix) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// forwardedFor returns the client address announced by the proxy.
func forwardedFor(r *http.Request) (netip.Addr, bool) {
	candidate := r.Header.Get("X-Real-IP")
	if candidate == "" {
		candidate, _, _ = strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(candidate))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
