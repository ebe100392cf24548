// Package brief builds renewal brief prompts and reads the generated replies.
package brief

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Brief is the structured renewal summary returned by the generator.
type Brief struct {
	RiskAssessment     string      `json:"riskAssessment"`
	MarketConditions   string      `json:"marketConditions"`
	RecommendedActions []string    `json:"recommendedActions"`
	PricingStrategy    string      `json:"pricingStrategy"`
	RetentionRisk      string      `json:"retentionRisk"`
	KeyTalkingPoints   []string    `json:"keyTalkingPoints"`
	CompetitorAnalysis string      `json:"competitorAnalysis"`
	RenewalProbability Probability `json:"renewalProbability"`
}

// Probability accepts either a JSON string ("80%") or a number (80).
type Probability string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Probability) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Probability(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("renewal probability: %w", err)
	}
	*p = Probability(strconv.FormatFloat(f, 'f', -1, 64) + "%")
	return nil
}

// Fallback is substituted when the generator's reply cannot be decoded.
func Fallback() Brief {
	return Brief{
		RiskAssessment:     "Analysis generated successfully but formatting needs review.",
		MarketConditions:   "Please review the raw AI output for detailed insights.",
		RecommendedActions: []string{"Review AI output", "Validate recommendations", "Proceed with renewal"},
		PricingStrategy:    "Standard approach recommended",
		RetentionRisk:      "Medium",
		KeyTalkingPoints:   []string{"Policy benefits", "Market position", "Claims history"},
		CompetitorAnalysis: "Competitive landscape analysis available",
		RenewalProbability: "75%",
	}
}

var fencePattern = regexp.MustCompile("```json\\n?|\\n?```")

// Parse decodes a generated reply, tolerating markdown code fences. When the
// reply is not a JSON object, or decodes to an empty brief, it returns
// Fallback() and ok=false.
func Parse(text string) (b Brief, ok bool) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
	if cleaned == "" {
		return Fallback(), false
	}
	if err := json.Unmarshal([]byte(cleaned), &b); err != nil || b.IsEmpty() {
		return Fallback(), false
	}
	return b, true
}

// IsEmpty reports whether no field carries content, as with a `null` or `{}`
// reply.
func (b Brief) IsEmpty() bool {
	return b.RiskAssessment == "" && b.MarketConditions == "" && len(b.RecommendedActions) == 0 &&
		b.PricingStrategy == "" && b.RetentionRisk == "" && len(b.KeyTalkingPoints) == 0 &&
		b.CompetitorAnalysis == "" && b.RenewalProbability == ""
}

// DefaultEmailContext is used for policies without recent correspondence.
const DefaultEmailContext = "No recent email context available."

// ContextSource looks up free-text correspondence for a policy.
type ContextSource interface {
	Lookup(policyID string) string
}

// StaticContext is a fixed policy-ID to email-snippet table.
type StaticContext map[string]string

// Lookup returns the snippet for policyID or DefaultEmailContext.
func (c StaticContext) Lookup(policyID string) string {
	if s, ok := c[policyID]; ok && s != "" {
		return s
	}
	return DefaultEmailContext
}

// SeedContext returns the correspondence attached to the seed policies.
func SeedContext() StaticContext {
	return StaticContext{
		"POL-001": "Subject: Renewal Concerns. Body: We are worried about the 15% rate hike mentioned in the news.",
		"POL-002": "Subject: Claim #992. Body: The slip and fall claim is still open. We need to know how this affects our premium.",
		"POL-003": "Subject: Payroll Audit. Body: Attached is the Q4 payroll. We hired 50 new staff.",
		"POL-004": "Subject: Property Valuation. Body: We added a new warehouse in Austin. Value $2M.",
	}
}

// BuildPrompt renders the generation prompt for p.
func BuildPrompt(p model.Policy, emailContext string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert insurance broker analyzing a policy renewal. ")
	sb.WriteString("Generate a comprehensive renewal brief for:\n\n")
	sb.WriteString("Policy Details:\n")
	fmt.Fprintf(&sb, "- Client: %s\n", p.Client)
	fmt.Fprintf(&sb, "- Industry: %s\n", p.Industry)
	fmt.Fprintf(&sb, "- Policy Type: %s\n", p.Type)
	fmt.Fprintf(&sb, "- Current Premium: $%s\n", FormatAmount(p.Premium))
	fmt.Fprintf(&sb, "- Expiry Date: %s\n", p.ExpiryDate)
	fmt.Fprintf(&sb, "- Claims History: %d claims\n", p.Claims)
	fmt.Fprintf(&sb, "- Source ID: %s\n\n", p.SourceID)
	fmt.Fprintf(&sb, "Recent Email Context: %s\n\n", emailContext)
	sb.WriteString(`Please provide a JSON response with the following structure:
{
  "riskAssessment": "Brief risk analysis",
  "marketConditions": "Current market trends affecting this policy type",
  "recommendedActions": ["Action 1", "Action 2", "Action 3"],
  "pricingStrategy": "Recommended pricing approach",
  "retentionRisk": "High/Medium/Low",
  "keyTalkingPoints": ["Point 1", "Point 2", "Point 3"],
  "competitorAnalysis": "Brief competitor landscape",
  "renewalProbability": "Percentage estimate"
}

Keep responses concise and actionable for a busy insurance broker.
`)
	return sb.String()
}

// FormatAmount renders v with thousands separators and at most two decimals.
func FormatAmount(v float64) string {
	s := decimal.NewFromFloat(v).Round(2).String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var out []byte
	for i := range len(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, intPart[i])
	}
	if hasFrac {
		return sign + string(out) + "." + frac
	}
	return sign + string(out)
}
