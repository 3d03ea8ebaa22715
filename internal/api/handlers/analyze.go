package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/infra/llm"
)

// AnalyzeHandler exposes the completion broker directly.
type AnalyzeHandler struct {
	broker llm.Completer
	logger log.FieldLogger
}

func NewAnalyzeHandler(broker llm.Completer, logger log.FieldLogger) *AnalyzeHandler {
	return &AnalyzeHandler{broker: broker, logger: logger}
}

// Analyze handles POST /api/analyze: {messages, jsonMode} → {text, provider}.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req llm.CompletionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBrokerError(w, r, h.logger, err, nil)
		return
	}

	res, err := h.broker.Complete(r.Context(), req)
	if err != nil {
		writeBrokerError(w, r, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
