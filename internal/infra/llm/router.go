// Package llm: failover router.
// Router tries the configured providers one at a time in priority order and
// returns the first success. Providers without a usable credential are
// skipped; if none is usable the call fails before touching the network.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/projectaghoy/aghoy/internal/infra/eventbus"
)

// TopicAttempt is the eventbus topic carrying one AttemptEvent per provider call.
const TopicAttempt = "llm.attempt"

// AttemptEvent describes a single adapter invocation.
type AttemptEvent struct {
	Provider   string
	Kind       Kind
	Model      string
	Success    bool
	StatusCode int
	Message    string
	Latency    time.Duration
}

// Router sequences adapters over a fixed, priority-ordered provider list.
type Router struct {
	providers []ProviderConfig
	adapters  map[Kind]Adapter
	events    eventbus.Publisher
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithEvents publishes an AttemptEvent for every adapter call.
func WithEvents(p eventbus.Publisher) RouterOption {
	return func(r *Router) {
		r.events = p
	}
}

// NewRouter creates a Router. providers are ordered by Priority once, here;
// equal priorities keep their declaration order.
func NewRouter(providers []ProviderConfig, adapters map[Kind]Adapter, opts ...RouterOption) *Router {
	ps := make([]ProviderConfig, len(providers))
	copy(ps, providers)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Priority < ps[j].Priority })

	as := make(map[Kind]Adapter, len(adapters))
	for k, v := range adapters {
		as[k] = v
	}

	r := &Router{providers: ps, adapters: as}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Providers returns the providers in the order they are tried.
func (r *Router) Providers() []ProviderConfig {
	out := make([]ProviderConfig, len(r.providers))
	copy(out, r.providers)
	return out
}

// Complete runs the failover loop. The first successful adapter wins and no
// later provider is called. Each provider is invoked at most once.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	usable := r.usable()
	if len(usable) == 0 {
		return nil, &ConfigurationError{Reason: "no LLM provider has a usable credential"}
	}

	var failures []FailureRecord
	for _, cfg := range usable {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		res, err := r.invoke(ctx, req, cfg)
		r.publish(cfg, err, time.Since(start))
		if err == nil {
			return res, nil
		}
		failures = append(failures, FailureRecord{Provider: cfg.Name, Message: err.Error()})
	}

	if len(failures) == 0 {
		return nil, fmt.Errorf("llm router: %w", ctx.Err())
	}
	return nil, &AllProvidersFailedError{Attempts: failures}
}

func (r *Router) usable() []ProviderConfig {
	out := make([]ProviderConfig, 0, len(r.providers))
	for _, p := range r.providers {
		if p.Usable() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Router) invoke(ctx context.Context, req CompletionRequest, cfg ProviderConfig) (*CompletionResult, error) {
	adapter, ok := r.adapters[cfg.Kind]
	if !ok {
		return nil, &ProviderError{Provider: cfg.Name, Detail: fmt.Sprintf("no adapter registered for kind %q", cfg.Kind)}
	}
	res, err := adapter.Invoke(ctx, req, cfg)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &ProviderError{Provider: cfg.Name, Detail: "adapter returned no result"}
	}
	return res, nil
}

func (r *Router) publish(cfg ProviderConfig, err error, latency time.Duration) {
	if r.events == nil {
		return
	}
	evt := AttemptEvent{
		Provider: cfg.Name,
		Kind:     cfg.Kind,
		Model:    cfg.Model,
		Success:  err == nil,
		Latency:  latency,
	}
	if err != nil {
		evt.Message = err.Error()
		var pe *ProviderError
		if errors.As(err, &pe) {
			evt.StatusCode = pe.StatusCode
		}
	}
	r.events.Publish(TopicAttempt, evt)
}
