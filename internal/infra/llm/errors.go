package llm

import (
	"fmt"
	"strings"
)

// ProviderError is returned by an adapter for any non-success outcome.
// StatusCode is 0 for transport-level faults.
type ProviderError struct {
	Provider   string
	StatusCode int
	Detail     string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Detail)
	}
	return e.Detail
}

// FailureRecord is one failed attempt inside a single failover run.
type FailureRecord struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

// AllProvidersFailedError means every attempted provider failed.
// Attempts is in the order the providers were tried.
type AllProvidersFailedError struct {
	Attempts []FailureRecord
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Provider+": "+a.Message)
	}
	return "All providers failed. " + strings.Join(parts, " | ")
}

// ConfigurationError means the broker cannot run at all: no provider has a
// usable credential, or the gateway routing config is incomplete.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "service misconfigured: " + e.Reason
}
