// Package scan classifies a user-submitted message as SAFE, SUSPICIOUS or
// HIGH_RISK by asking the completion broker for a structured analysis.
package scan

// Verdict is the top-level classification.
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictHighRisk   Verdict = "HIGH_RISK"
)

// Risk score bounds.
const (
	MinRiskScore = 0
	MaxRiskScore = 10
)

// AnalysisResult is the structured answer returned to the client.
type AnalysisResult struct {
	Verdict        Verdict  `json:"verdict"`
	RiskScore      int      `json:"riskScore"`
	ScamType       string   `json:"scamType"`
	SenderEntity   string   `json:"senderEntity"`
	RedFlags       []string `json:"redFlags"`
	Analysis       string   `json:"analysis"`
	EducationalTip string   `json:"educationalTip"`
}

// OCR is the text a client-side recognizer extracted from a screenshot.
type OCR struct {
	Text            string  `json:"text"`
	ConfidenceScore float64 `json:"confidenceScore" validate:"gte=0,lte=100"`
}

// Input is one scan request.
type Input struct {
	Text     string `json:"text" validate:"max=20000"`
	Language string `json:"language" validate:"max=32"`
	OCR      *OCR   `json:"ocr,omitempty"`
}

// Output pairs the analysis with the provider that produced it. Provider is
// empty when no provider was called (unreadable image).
type Output struct {
	Result   AnalysisResult `json:"result"`
	Provider string         `json:"provider,omitempty"`
}

// unreadableImage is returned without calling any provider when the OCR
// text is too blurry or too short to analyze.
func unreadableImage() AnalysisResult {
	return AnalysisResult{
		Verdict:        VerdictSuspicious,
		RiskScore:      5,
		ScamType:       "Unreadable Image",
		SenderEntity:   "Unknown",
		RedFlags:       []string{"IMAGE TOO BLURRY", "TEXT NOT DETECTED"},
		Analysis:       "I could not read the text in this image clearly. It might be blurry or low quality.",
		EducationalTip: "Please TYPE the message contents manually into the box above for an accurate analysis.",
	}
}
