package scan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/projectaghoy/aghoy/internal/infra/llm"
)

type stubCompleter struct {
	text  string
	err   error
	calls []llm.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResult, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResult{Text: s.text, Provider: "cerebras"}, nil
}

const highRiskJSON = `{"verdict":"HIGH_RISK","riskScore":9,"scamType":"Phishing","senderEntity":"BDO-Fake",` +
	`"redFlags":["URGENCY","SHORTENED URL"],"analysis":"Fake bank link.","educationalTip":"Banks never text links."}`

func newTestService(c llm.Completer) *Service {
	logger, _ := test.NewNullLogger()
	return NewService(c, logger)
}

func TestScan_Success(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{text: "```json\n" + highRiskJSON + "\n```"}
	out, err := newTestService(stub).Scan(context.Background(), Input{
		Text:     "Your BDO account is locked, verify at bit.ly/x",
		Language: "tagalog",
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if out.Provider != "cerebras" {
		t.Errorf("expected provider cerebras, got %q", out.Provider)
	}
	if out.Result.Verdict != VerdictHighRisk || out.Result.RiskScore != 9 {
		t.Errorf("unexpected result: %+v", out.Result)
	}

	if len(stub.calls) != 1 {
		t.Fatalf("expected 1 broker call, got %d", len(stub.calls))
	}
	req := stub.calls[0]
	if !req.JSONMode {
		t.Error("expected jsonMode request")
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != llm.RoleSystem || req.Messages[1].Role != llm.RoleUser {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[0].Content, "TAGALOG") || !strings.Contains(req.Messages[0].Content, "Taglish") {
		t.Error("expected localized Tagalog system prompt")
	}
	if !strings.Contains(req.Messages[0].Content, "ASKING FOR PAYMENT TO WORK") {
		t.Error("expected flag vocabulary in system prompt")
	}
}

func TestScan_CombinesOCRText(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{text: highRiskJSON}
	_, err := newTestService(stub).Scan(context.Background(), Input{
		Text: "got this today",
		OCR:  &OCR{Text: "Congrats! You won P50,000. Claim now.", ConfidenceScore: 91},
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	content := stub.calls[0].Messages[1].Content
	if !strings.Contains(content, "[USER NOTE]: got this today") || !strings.Contains(content, "[IMAGE CONTENT (OCR)]: Congrats!") {
		t.Errorf("unexpected combined content: %q", content)
	}
}

func TestScan_UnreadableImageSkipsProviders(t *testing.T) {
	t.Parallel()

	cases := map[string]OCR{
		"blurry":  {Text: "a perfectly long sentence", ConfidenceScore: 59.9},
		"no text": {Text: "  short  ", ConfidenceScore: 95},
	}
	for name, ocr := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			stub := &stubCompleter{text: highRiskJSON}
			out, err := newTestService(stub).Scan(context.Background(), Input{OCR: &ocr})
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if len(stub.calls) != 0 {
				t.Errorf("expected no broker calls, got %d", len(stub.calls))
			}
			if out.Result.ScamType != "Unreadable Image" || out.Result.Verdict != VerdictSuspicious {
				t.Errorf("unexpected result: %+v", out.Result)
			}
		})
	}
}

func TestScan_ContentTooShort(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{text: highRiskJSON}
	_, err := newTestService(stub).Scan(context.Background(), Input{Text: "  hi  "})
	if !errors.Is(err, ErrContentTooShort) {
		t.Fatalf("expected ErrContentTooShort, got %v", err)
	}
	if len(stub.calls) != 0 {
		t.Errorf("expected no broker calls, got %d", len(stub.calls))
	}
}

func TestScan_BrokerErrorPassesThrough(t *testing.T) {
	t.Parallel()

	brokerErr := &llm.AllProvidersFailedError{Attempts: []llm.FailureRecord{{Provider: "cerebras", Message: "boom"}}}
	_, err := newTestService(&stubCompleter{err: brokerErr}).Scan(context.Background(), Input{Text: "Win a free iPhone now"})

	var apf *llm.AllProvidersFailedError
	if !errors.As(err, &apf) {
		t.Fatalf("expected AllProvidersFailedError, got %v", err)
	}
}

func TestScan_UnparseableAnalysis(t *testing.T) {
	t.Parallel()

	_, err := newTestService(&stubCompleter{text: "I think it's a scam"}).Scan(context.Background(), Input{Text: "Win a free iPhone now"})
	if !errors.Is(err, ErrUnreadableAnalysis) {
		t.Fatalf("expected ErrUnreadableAnalysis, got %v", err)
	}
}

func TestParseResult_NormalizesModelOutput(t *testing.T) {
	t.Parallel()

	res, err := parseResult(`Sure! {"verdict":"high risk","riskScore":14.6,"redFlags":null} hope this helps`)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if res.Verdict != VerdictHighRisk {
		t.Errorf("expected HIGH_RISK, got %q", res.Verdict)
	}
	if res.RiskScore != MaxRiskScore {
		t.Errorf("expected score clamped to %d, got %d", MaxRiskScore, res.RiskScore)
	}
	if res.RedFlags == nil {
		t.Error("expected empty, non-nil redFlags")
	}

	res, err = parseResult(`{"verdict":"SAFE","riskScore":-2}`)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if res.RiskScore != MinRiskScore {
		t.Errorf("expected score clamped to %d, got %d", MinRiskScore, res.RiskScore)
	}
}

func TestParseResult_RejectsUnknownVerdict(t *testing.T) {
	t.Parallel()

	if _, err := parseResult(`{"verdict":"MAYBE","riskScore":3}`); !errors.Is(err, ErrUnreadableAnalysis) {
		t.Errorf("expected ErrUnreadableAnalysis, got %v", err)
	}
}

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: `prefix {"a":{"b":2}} suffix`, want: `{"a":{"b":2}}`},
		{in: "no braces", want: "no braces"},
	}
	for _, tc := range cases {
		if got := cleanJSON(tc.in); got != tc.want {
			t.Errorf("cleanJSON(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildSystemPrompt_UnknownLanguageVerbatim(t *testing.T) {
	t.Parallel()

	p := buildSystemPrompt(NormalizeLanguage(" waray "))
	if !strings.Contains(p, "Respond in clear, simple WARAY.") {
		t.Errorf("expected generic style for unknown language, got %q", p)
	}
	if NormalizeLanguage("") != DefaultLanguage {
		t.Errorf("expected default language %q", DefaultLanguage)
	}
}
