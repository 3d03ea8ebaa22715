package llm

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/projectaghoy/aghoy/internal/infra/eventbus"
)

func TestLogAttempts_WritesOneEntryPerAttempt(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	bus := eventbus.New()
	ch := bus.Subscribe(TopicAttempt)

	done := make(chan struct{})
	go func() {
		LogAttempts(ch, logger)
		close(done)
	}()

	bus.Publish(TopicAttempt, AttemptEvent{Provider: "Cerebras", Message: "status 503: down", StatusCode: 503})
	bus.Publish(TopicAttempt, AttemptEvent{Provider: "Groq", Success: true, Latency: time.Second})
	bus.Publish(TopicAttempt, "not an attempt")
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LogAttempts did not return after bus.Close")
	}

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != log.WarnLevel || entries[0].Data["event"] != "provider_failed" {
		t.Errorf("unexpected first entry %+v", entries[0].Data)
	}
	if entries[1].Level != log.InfoLevel || entries[1].Data["latency_ms"] != int64(1000) {
		t.Errorf("unexpected second entry %+v", entries[1].Data)
	}
}
