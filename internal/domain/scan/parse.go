package scan

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// cleanJSON strips markdown fences and cuts the text down to the outermost
// {...} span, which is how models usually wrap JSON they were asked for.
func cleanJSON(text string) string {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	first := strings.Index(clean, "{")
	last := strings.LastIndex(clean, "}")
	if first != -1 && last > first {
		clean = clean[first : last+1]
	}
	return clean
}

// rawResult accepts the looser shapes models produce (fractional scores).
type rawResult struct {
	Verdict        string   `json:"verdict"`
	RiskScore      float64  `json:"riskScore"`
	ScamType       string   `json:"scamType"`
	SenderEntity   string   `json:"senderEntity"`
	RedFlags       []string `json:"redFlags"`
	Analysis       string   `json:"analysis"`
	EducationalTip string   `json:"educationalTip"`
}

func parseResult(text string) (AnalysisResult, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return AnalysisResult{}, fmt.Errorf("%w: %v", ErrUnreadableAnalysis, err)
	}

	verdict, ok := parseVerdict(raw.Verdict)
	if !ok {
		return AnalysisResult{}, fmt.Errorf("%w: unknown verdict %q", ErrUnreadableAnalysis, raw.Verdict)
	}

	flags := raw.RedFlags
	if flags == nil {
		flags = []string{}
	}
	return AnalysisResult{
		Verdict:        verdict,
		RiskScore:      clampScore(raw.RiskScore),
		ScamType:       raw.ScamType,
		SenderEntity:   raw.SenderEntity,
		RedFlags:       flags,
		Analysis:       raw.Analysis,
		EducationalTip: raw.EducationalTip,
	}, nil
}

func parseVerdict(s string) (Verdict, bool) {
	v := Verdict(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "_"))
	switch v {
	case VerdictSafe, VerdictSuspicious, VerdictHighRisk:
		return v, true
	}
	return "", false
}

func clampScore(f float64) int {
	if math.IsNaN(f) {
		return MinRiskScore
	}
	n := int(math.Round(f))
	if n < MinRiskScore {
		return MinRiskScore
	}
	if n > MaxRiskScore {
		return MaxRiskScore
	}
	return n
}
