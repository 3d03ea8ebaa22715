package handlers

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/domain/scan"
)

type ScanService interface {
	Scan(ctx context.Context, in scan.Input) (*scan.Output, error)
}

type ScanHandler struct {
	svc    ScanService
	logger log.FieldLogger
}

func NewScanHandler(svc ScanService, logger log.FieldLogger) *ScanHandler {
	return &ScanHandler{svc: svc, logger: logger}
}

// Scan handles POST /api/scan.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var in scan.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeBrokerError(w, r, h.logger, err, nil)
		return
	}

	out, err := h.svc.Scan(r.Context(), in)
	if err != nil {
		writeBrokerError(w, r, h.logger, err, classifyScanError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func classifyScanError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, scan.ErrContentTooShort):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, scan.ErrUnreadableAnalysis):
		return http.StatusBadGateway, scan.ErrUnreadableAnalysis.Error(), true
	}
	return 0, "", false
}
