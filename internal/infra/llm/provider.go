// Package llm adapters translate the uniform CompletionRequest into one
// provider's wire format so the rest of the application never depends on a
// specific vendor.
package llm

import "context"

// Adapter is the uniform call contract over one wire format.
// Any non-success outcome is reported as a *ProviderError. Adapters never
// retry: fallback is the Router's job.
type Adapter interface {
	Invoke(ctx context.Context, req CompletionRequest, cfg ProviderConfig) (*CompletionResult, error)
}

// Completer is what request handlers depend on. *Router implements it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// AdapterFunc lets a plain function act as an Adapter.
type AdapterFunc func(ctx context.Context, req CompletionRequest, cfg ProviderConfig) (*CompletionResult, error)

// Invoke calls f.
func (f AdapterFunc) Invoke(ctx context.Context, req CompletionRequest, cfg ProviderConfig) (*CompletionResult, error) {
	return f(ctx, req, cfg)
}

// misconfigured is a Completer that fails every call with the same
// configuration error. Used when startup config is broken but the process
// must still answer preflight and health requests.
type misconfigured struct{ err *ConfigurationError }

// Misconfigured returns a Completer that always fails with err.
func Misconfigured(err *ConfigurationError) Completer {
	return misconfigured{err: err}
}

func (m misconfigured) Complete(_ context.Context, _ CompletionRequest) (*CompletionResult, error) {
	return nil, m.err
}
