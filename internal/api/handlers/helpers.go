// Package handlers implements the broker's HTTP endpoints. Handlers assume
// the boundary middleware already ran (CORS, method guard, identity, admission).
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/infra/llm"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
	maxBodyBytes      = 1 << 20
)

// requestError is a client-facing failure with a fixed status.
type requestError struct {
	status  int
	message string
}

func (e requestError) Error() string { return e.message }

var validate = newValidator()

// newValidator reports field paths with their JSON names ("messages[0].role").
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads exactly one JSON object with only known fields from the
// body into dst and validates it. Oversized bodies are a 413, anything else
// malformed a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err != nil {
			if reqErr := bodyError(err); reqErr.status == http.StatusRequestEntityTooLarge {
				return reqErr
			}
		}
		return requestError{status: http.StatusBadRequest, message: "request body must be a single JSON object"}
	}
	if err := validate.Struct(dst); err != nil {
		return requestError{status: http.StatusBadRequest, message: validationMessage(err)}
	}
	return nil
}

func bodyError(err error) requestError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return requestError{status: http.StatusRequestEntityTooLarge, message: "request body too large"}
	}
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return requestError{status: http.StatusBadRequest, message: "unknown field " + field}
	}
	return requestError{status: http.StatusBadRequest, message: "invalid request body"}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s exceeds the maximum of %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	}
	return field + " is invalid"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("encode response")
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}

// writeBrokerError maps request, domain and broker failures to responses.
// classify covers errors owned by the calling handler's domain; it returns
// ok=false for anything it does not recognize.
func writeBrokerError(
	w http.ResponseWriter,
	r *http.Request,
	logger log.FieldLogger,
	err error,
	classify func(error) (int, string, bool),
) {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		logger.WithFields(log.Fields{"event": "request_rejected", "path": r.URL.Path}).Debug(reqErr.message)
		writeError(w, reqErr.status, reqErr.message)
		return
	}
	if classify != nil {
		if status, msg, ok := classify(err); ok {
			writeError(w, status, msg)
			return
		}
	}

	var cfgErr *llm.ConfigurationError
	if errors.As(err, &cfgErr) {
		logger.WithFields(log.Fields{"event": "misconfigured", "path": r.URL.Path}).Error(cfgErr.Error())
		writeError(w, http.StatusInternalServerError, cfgErr.Error())
		return
	}

	var allErr *llm.AllProvidersFailedError
	if errors.As(err, &allErr) {
		logger.WithFields(log.Fields{
			"event":    "all_providers_failed",
			"path":     r.URL.Path,
			"attempts": len(allErr.Attempts),
		}).Error(allErr.Error())
		writeError(w, http.StatusInternalServerError, allErr.Error())
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "request cancelled before a provider answered")
		return
	}

	logger.WithFields(log.Fields{"path": r.URL.Path}).WithError(err).Error("Unhandled request error")
	writeError(w, http.StatusInternalServerError, "internal error")
}
