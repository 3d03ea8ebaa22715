package llm

import (
	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/infra/eventbus"
)

// LogAttempts consumes AttemptEvents until events is closed and writes one
// structured log line per provider call. Run it in its own goroutine.
func LogAttempts(events <-chan eventbus.Event, logger log.FieldLogger) {
	for evt := range events {
		attempt, ok := evt.Payload.(AttemptEvent)
		if !ok {
			continue
		}

		fields := log.Fields{
			"provider":   attempt.Provider,
			"kind":       attempt.Kind,
			"model":      attempt.Model,
			"latency_ms": attempt.Latency.Milliseconds(),
		}
		if attempt.Success {
			fields["event"] = "provider_success"
			logger.WithFields(fields).Info("Provider call succeeded")
			continue
		}

		fields["event"] = "provider_failed"
		fields["status"] = attempt.StatusCode
		fields["error"] = attempt.Message
		logger.WithFields(fields).Warn("Provider call failed")
	}
}
