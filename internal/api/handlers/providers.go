package handlers

import (
	"net/http"

	"github.com/projectaghoy/aghoy/internal/infra/llm"
)

// ProviderSummary is the public view of a ProviderConfig. The credential
// itself is never exposed.
type ProviderSummary struct {
	Name          string   `json:"name"`
	Kind          llm.Kind `json:"kind"`
	Model         string   `json:"model"`
	Priority      int      `json:"priority"`
	HasCredential bool     `json:"hasCredential"`
	Usable        bool     `json:"usable"`
}

type ProvidersHandler struct {
	providers []ProviderSummary
}

// NewProvidersHandler snapshots providers; the list is static for the process.
func NewProvidersHandler(providers []llm.ProviderConfig) *ProvidersHandler {
	out := make([]ProviderSummary, 0, len(providers))
	for _, p := range providers {
		out = append(out, ProviderSummary{
			Name:          p.Name,
			Kind:          p.Kind,
			Model:         p.Model,
			Priority:      p.Priority,
			HasCredential: p.Credential != "",
			Usable:        p.Usable(),
		})
	}
	return &ProvidersHandler{providers: out}
}

// List handles GET /api/providers.
func (h *ProvidersHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.providers})
}
