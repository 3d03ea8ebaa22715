package handlers

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/domain/dojo"
)

type DojoService interface {
	Reply(ctx context.Context, in dojo.Input) (*dojo.Output, error)
}

type DojoHandler struct {
	svc    DojoService
	logger log.FieldLogger
}

func NewDojoHandler(svc DojoService, logger log.FieldLogger) *DojoHandler {
	return &DojoHandler{svc: svc, logger: logger}
}

// Reply handles POST /api/dojo.
func (h *DojoHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var in dojo.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeBrokerError(w, r, h.logger, err, nil)
		return
	}

	out, err := h.svc.Reply(r.Context(), in)
	if err != nil {
		writeBrokerError(w, r, h.logger, err, classifyDojoError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func classifyDojoError(err error) (int, string, bool) {
	if errors.Is(err, dojo.ErrEmptyMessage) || errors.Is(err, dojo.ErrInvalidHistory) {
		return http.StatusBadRequest, err.Error(), true
	}
	return 0, "", false
}
