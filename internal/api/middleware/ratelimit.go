package middleware

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/api/ctxkeys"
	"github.com/projectaghoy/aghoy/internal/privacy"
)

// MsgTooManyRequests is the 429 error body. Clients match on it.
const MsgTooManyRequests = "Too Many Requests. Please wait a minute before scanning again."

// Admitter is the part of ratelimit.Limiter the boundary depends on.
type Admitter interface {
	Admit(ctx context.Context, identity string) (bool, error)
}

// RateLimit admits or rejects the request for the identity stored by the
// Identity middleware. A counter store error admits the request and logs a
// warning: quota enforcement is not worth an outage. An empty fingerprintKey
// is replaced by a random one so logged identities are always keyed.
func RateLimit(limiter Admitter, logger log.FieldLogger, fingerprintKey string) func(http.Handler) http.Handler {
	if fingerprintKey == "" {
		fingerprintKey = privacy.NewFingerprintKey()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ctxkeys.String(r.Context(), ctxkeys.ClientIdentity)
			ok, err := limiter.Admit(r.Context(), id)
			if err != nil {
				logger.WithFields(log.Fields{
					"event":    "rate_store_error",
					"identity": privacy.Fingerprint(fingerprintKey, id),
				}).WithError(err).Warn("Rate limiter unavailable, admitting request")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				logger.WithFields(log.Fields{
					"event":    "rate_limited",
					"identity": privacy.Fingerprint(fingerprintKey, id),
					"path":     r.URL.Path,
				}).Info("Request rate limited")
				WriteError(w, http.StatusTooManyRequests, MsgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
