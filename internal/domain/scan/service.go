package scan

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/infra/llm"
	"github.com/projectaghoy/aghoy/internal/privacy"
)

var (
	// ErrContentTooShort means there is nothing worth sending to a model.
	ErrContentTooShort = errors.New("provide text or an image to analyze")
	// ErrUnreadableAnalysis means the provider answered but not with a usable analysis.
	ErrUnreadableAnalysis = errors.New("provider returned an unreadable analysis")
)

// OCR gate thresholds.
const (
	MinOCRConfidence = 60
	MinOCRTextLen    = 10
	minContentLen    = 5
)

// Service runs scans through the completion broker.
type Service struct {
	llm    llm.Completer
	logger log.FieldLogger
}

// NewService wires a Service. logger may be nil.
func NewService(c llm.Completer, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{llm: c, logger: logger}
}

// Scan analyzes in.Text plus any OCR text. An unreadable screenshot yields a
// fixed SUSPICIOUS result without calling a provider. Broker errors
// (*llm.AllProvidersFailedError, *llm.ConfigurationError) are returned as is.
func (s *Service) Scan(ctx context.Context, in Input) (*Output, error) {
	language := NormalizeLanguage(in.Language)

	var ocrText string
	if in.OCR != nil {
		ocrText = strings.TrimSpace(in.OCR.Text)
		if in.OCR.ConfidenceScore < MinOCRConfidence || len([]rune(ocrText)) < MinOCRTextLen {
			s.logger.WithFields(log.Fields{
				"event":      "scan_complete",
				"verdict":    VerdictSuspicious,
				"unreadable": true,
				"confidence": in.OCR.ConfidenceScore,
			}).Info("Screenshot unreadable")
			return &Output{Result: unreadableImage()}, nil
		}
	}

	content := buildContent(in.Text, ocrText)
	if len([]rune(strings.TrimSpace(content))) < minContentLen {
		return nil, ErrContentTooShort
	}

	res, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: buildSystemPrompt(language)},
			{Role: llm.RoleUser, Content: content},
		},
		JSONMode: true,
	})
	if err != nil {
		return nil, err
	}

	result, err := parseResult(res.Text)
	if err != nil {
		s.logger.WithFields(log.Fields{
			"event":    "scan_unparseable",
			"provider": res.Provider,
		}).WithError(err).Warn("Provider returned unusable analysis")
		return nil, err
	}

	s.logger.WithFields(log.Fields{
		"event":        "scan_complete",
		"verdict":      result.Verdict,
		"risk_score":   result.RiskScore,
		"provider":     res.Provider,
		"language":     language,
		"content_hash": privacy.ContentHash(content),
	}).Info("Scan complete")

	return &Output{Result: result, Provider: res.Provider}, nil
}
