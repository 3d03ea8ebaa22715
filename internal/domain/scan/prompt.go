package scan

import (
	"fmt"
	"strings"
)

// ValidFlags is the closed vocabulary the model may use for redFlags.
var ValidFlags = []string{
	"URGENCY",
	"SHORTENED URL",
	"TOO GOOD TO BE TRUE OFFER",
	"SUSPICIOUS CHARACTER SUBSTITUTION",
	"UNSOLICITED MESSAGE",
	"ILLEGAL GAMBLING PROMOTION",
	"GENERIC GREETING",
	"REQUEST FOR PERSONAL INFO",
	"GRAMMATICAL ERRORS",
	"UNOFFICIAL DOMAIN",
	"ASKING FOR PAYMENT TO WORK",
	"THREATS",
	"UNUSUAL SENDER",
}

// DefaultLanguage is used when the request names none.
const DefaultLanguage = "ENGLISH"

var speakingStyles = map[string]string{
	"TAGALOG": `Use natural Taglish/Tagalog. Use local terms like "Lods", "Ingat", "Modus 'yan". Persona: Friendly 'Kuya/Ate'.`,
	"BISAYA":  "Use natural Cebuano/Bisaya. Persona: Helpful local expert.",
	"ILOCANO": "Use natural Ilokano. Ensure deep vocabulary accuracy. Persona: Trusted neighbor.",
}

// NormalizeLanguage upper-cases and trims language, defaulting to English.
func NormalizeLanguage(language string) string {
	l := strings.ToUpper(strings.TrimSpace(language))
	if l == "" {
		return DefaultLanguage
	}
	return l
}

func buildSystemPrompt(language string) string {
	style, ok := speakingStyles[language]
	if !ok {
		style = fmt.Sprintf("Respond in clear, simple %s.", language)
	}

	var b strings.Builder
	b.WriteString("You are Project Aghoy, a cybersecurity expert.\n")
	fmt.Fprintf(&b, "**Language Mode:** %s.\n", language)
	fmt.Fprintf(&b, "**Speaking Style:** %s\n\n", style)
	b.WriteString("**TASK:** Analyze the provided text (which may be OCR extracted from a screenshot) for scams.\n\n")
	b.WriteString("**INSTRUCTIONS:**\n")
	b.WriteString("1. Detect scam type (Phishing, Task Scam, etc.).\n")
	fmt.Fprintf(&b, "2. educationalTip: Explain how to spot this specific scam in %s.\n", language)
	b.WriteString("3. Sender Entity: Extract who sent it.\n\n")
	b.WriteString(jsonSchemaPrompt())
	return b.String()
}

func jsonSchemaPrompt() string {
	return `STRICT JSON OUTPUT REQUIRED.
Return a single JSON object with this exact schema:
{
  "verdict": "SAFE" | "SUSPICIOUS" | "HIGH_RISK",
  "riskScore": number (0-10),
  "scamType": "string (e.g. Phishing, Investment, None)",
  "senderEntity": "string (Name/Number or 'Unknown')",
  "redFlags": ["string (Select ONLY from: ` + strings.Join(ValidFlags, ", ") + `)"],
  "analysis": "string (Explanation in user language)",
  "educationalTip": "string (Advice in user language)"
}
`
}

// buildContent merges the user's note with OCR text when there is any.
func buildContent(note, ocrText string) string {
	if ocrText == "" {
		return note
	}
	return fmt.Sprintf("[USER NOTE]: %s\n[IMAGE CONTENT (OCR)]: %s", note, ocrText)
}
