// internal/models/assessment.go
package models

// RiskLevel is the tier derived from the composite risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// FactorScores holds the four independent factor scores, each in [0,100].
type FactorScores struct {
	ProcessCountScore float64 `json:"processCountScore"`
	DefendantScore    float64 `json:"defendantScore"`
	SeverityScore     float64 `json:"severityScore"`
	FinancialScore    float64 `json:"financialScore"`
}

// NarrativeAnalysis is the LLM portion of an assessment. When LLMAvailable
// is false the remaining fields carry the fixed fallback guidance.
type NarrativeAnalysis struct {
	LLMAvailable   bool     `json:"llmAvailable"`
	Insights       string   `json:"insights"`
	RedFlags       []string `json:"redFlags"`
	Recommendation string   `json:"recommendation"`
	RawResponse    string   `json:"rawResponse,omitempty"`
}

// RiskAssessment is the merged output of the deterministic scorer and the
// narrative analyzer for one subject.
type RiskAssessment struct {
	Score      float64           `json:"score"`
	Level      RiskLevel         `json:"level"`
	LevelLabel string            `json:"levelLabel"`
	Color      string            `json:"color"`
	Emoji      string            `json:"emoji"`
	Factors    FactorScores      `json:"factors"`
	Analysis   NarrativeAnalysis `json:"llmAnalysis"`
	Summary    string            `json:"summary"`
}
