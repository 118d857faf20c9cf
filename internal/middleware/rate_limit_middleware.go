package middleware

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/model"
	"context"
	"log/slog"
	"math"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// RateLimitStore counts hits per key in a fixed window.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (model.RateLimitDecision, error)
}

type RateLimitMiddleware struct {
	store          RateLimitStore
	trustedProxies []netip.Prefix
}

func NewRateLimitMiddleware(store RateLimitStore, cfg *config.AppConfig) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		store:          store,
		trustedProxies: parseTrustedProxies(cfg.TrustedProxyCIDRs),
	}
}

// Limit keys authenticated requests by user and anonymous ones by client IP.
func (m *RateLimitMiddleware) Limit(name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:ip:" + name + ":" + m.clientIP(r)
			if user := UserFromContext(r.Context()); user != nil && user.ID != "" {
				key = "ratelimit:user:" + name + ":" + user.ID
			}

			decision, err := m.store.Hit(r.Context(), key, limit, window)
			if err != nil {
				slog.Error("Rate limit check failed", "error", err, "key", key)
				helper.WriteError(w, helper.NewServiceUnavailableError("Rate limiting service unavailable"))
				return
			}

			retryAfter := strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds())))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", retryAfter)

			if !decision.Allowed {
				w.Header().Set("Retry-After", retryAfter)
				helper.WriteError(w, helper.NewTooManyRequestsError("Rate limit exceeded. Please try again later."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP trusts forwarding headers only when the direct peer is a trusted
// proxy. It returns the right-most X-Forwarded-For hop outside the trusted
// ranges, then X-Real-IP, then the peer itself.
func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	peer, ok := parseAddr(r.RemoteAddr)
	if !ok {
		return r.RemoteAddr
	}
	if !m.trusted(peer) {
		return peer.String()
	}

	hops := forwardedHops(r.Header.Get("X-Forwarded-For"))
	for i := len(hops) - 1; i >= 0; i-- {
		if !m.trusted(hops[i]) {
			return hops[i].String()
		}
	}
	if len(hops) > 0 {
		return hops[0].String()
	}

	if realIP, ok := parseAddr(r.Header.Get("X-Real-IP")); ok && !m.trusted(realIP) {
		return realIP.String()
	}
	return peer.String()
}

func (m *RateLimitMiddleware) trusted(addr netip.Addr) bool {
	for _, prefix := range m.trustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func parseTrustedProxies(cidrs []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("Ignoring invalid trusted proxy CIDR", "cidr", cidr, "error", err)
			continue
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes
}

func forwardedHops(header string) []netip.Addr {
	if header == "" {
		return nil
	}

	var hops []netip.Addr
	for _, part := range strings.Split(header, ",") {
		if addr, ok := parseAddr(part); ok {
			hops = append(hops, addr)
		}
	}
	return hops
}

// parseAddr accepts "ip", "ip:port" and "[ipv6]:port".
func parseAddr(value string) (netip.Addr, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return netip.Addr{}, false
	}
	if addrPort, err := netip.ParseAddrPort(value); err == nil {
		return addrPort.Addr().Unmap(), true
	}
	addr, err := netip.ParseAddr(strings.Trim(value, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
