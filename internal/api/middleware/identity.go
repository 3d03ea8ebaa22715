package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/projectaghoy/aghoy/internal/api/ctxkeys"
	"github.com/projectaghoy/aghoy/internal/infra/ratelimit"
)

// DefaultTrustedHeader is set by Cloudflare to the connecting client address.
const DefaultTrustedHeader = "CF-Connecting-IP"

// ResolveIdentity picks the rate-limit identity for r, in order: the trusted
// proxy header, the direct peer address, "unknown". Only the configured
// header is read; X-Forwarded-For counts only when configured as the trusted
// header, and then its rightmost hop (the one the proxy appended) is used.
func ResolveIdentity(r *http.Request, trustedHeader string) string {
	if trustedHeader != "" {
		if v := lastHop(r.Header.Get(trustedHeader)); v != "" {
			return v
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return ratelimit.UnknownIdentity
}

func lastHop(v string) string {
	if i := strings.LastIndexByte(v, ','); i >= 0 {
		v = v[i+1:]
	}
	return strings.TrimSpace(v)
}

// Identity stores the resolved identity under ctxkeys.ClientIdentity.
func Identity(trustedHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ResolveIdentity(r, trustedHeader)
			ctx := ctxkeys.WithValue(r.Context(), ctxkeys.ClientIdentity, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
