// Package risk implements the risk assessment engine: a deterministic
// multi-factor scorer over judicial process records, a narrative analyzer
// backed by a generative text model, and the assessor facade that merges
// both into a single result.
package risk

import (
	"fmt"
	"math"
	"strings"

	"kye-workers/internal/models"
)

// Factor weights. These must sum to exactly 1.0.
const (
	weightProcessCount      = 0.25
	weightDefendantRole     = 0.30
	weightCaseSeverity      = 0.25
	weightFinancialExposure = 0.20
)

// severityRule maps a case-class keyword to a severity value. Matching is
// case-insensitive substring containment; a record matching several rules
// takes the highest value.
type severityRule struct {
	Keyword  string
	Severity float64
}

var severityTable = []severityRule{
	{"criminal", 100},
	{"penal", 100},
	{"trabalhista", 70},
	{"labor", 70},
	{"trabalho", 70},
	{"execu", 60}, // execução variants
	{"civil", 40},
	{"família", 30},
	{"family", 30},
	{"consumidor", 25},
}

const defaultSeverity = 30.0

// Party-role keywords, matched case-insensitively as substrings.
var (
	defendantKeywords = []string{"réu", "reu", "executado", "demandado"}
	plaintiffKeywords = []string{"autor", "exequente"}
)

// unknownRoleScore applies when no record carries any party at all.
const unknownRoleScore = 30.0

// Scorer computes the deterministic factor scores and composite risk
// score. It is pure: no I/O, no external calls, reproducible for
// identical input.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Factors computes the four independent factor scores, each clamped to
// [0,100]. Callers must not pass an empty record list; the assessor
// short-circuits that case before the scorer is reached.
func (s *Scorer) Factors(records []models.ProcessRecord) models.FactorScores {
	return models.FactorScores{
		ProcessCountScore: clamp(s.processCountScore(records)),
		DefendantScore:    clamp(s.defendantScore(records)),
		SeverityScore:     clamp(s.severityScore(records)),
		FinancialScore:    clamp(s.financialScore(records)),
	}
}

// CompositeScore combines the factors by fixed weights and rounds to one
// decimal place. Rounding happens before tier comparison, so boundary
// scores land on the rounded value.
func (s *Scorer) CompositeScore(f models.FactorScores) float64 {
	total := f.ProcessCountScore*weightProcessCount +
		f.DefendantScore*weightDefendantRole +
		f.SeverityScore*weightCaseSeverity +
		f.FinancialScore*weightFinancialExposure
	return math.Round(total*10) / 10
}

func (s *Scorer) processCountScore(records []models.ProcessRecord) float64 {
	count := len(records)
	switch {
	case count == 0:
		return 0
	case count == 1:
		return 20
	case count == 2:
		return 35
	case count <= 5:
		return 50
	case count <= 10:
		return 70
	default:
		return math.Min(100, 70+float64(count-10)*3)
	}
}

func (s *Scorer) defendantScore(records []models.ProcessRecord) float64 {
	defendantCount := 0
	totalRoles := 0

	for _, rec := range records {
		for _, party := range rec.Partes {
			totalRoles++
			if matchesAny(party.Tipo, defendantKeywords) {
				defendantCount++
			}
		}
	}

	if totalRoles == 0 {
		return unknownRoleScore
	}
	return float64(defendantCount) / float64(totalRoles) * 100
}

func (s *Scorer) severityScore(records []models.ProcessRecord) float64 {
	if len(records) == 0 {
		return 0
	}

	var sum, max float64
	for _, rec := range records {
		severity := recordSeverity(rec)
		sum += severity
		if severity > max {
			max = severity
		}
	}

	mean := sum / float64(len(records))
	return mean*0.6 + max*0.4
}

func recordSeverity(rec models.ProcessRecord) float64 {
	className := strings.ToLower(rec.ClasseProcessual.Nome)
	severity := defaultSeverity
	for _, rule := range severityTable {
		if strings.Contains(className, rule.Keyword) && rule.Severity > severity {
			severity = rule.Severity
		}
	}
	return severity
}

func (s *Scorer) financialScore(records []models.ProcessRecord) float64 {
	var total float64
	for _, rec := range records {
		total += rec.ValorCausa.Amount()
	}

	switch {
	case total == 0:
		return 10
	case total < 10000:
		return 20
	case total < 50000:
		return 35
	case total < 100000:
		return 50
	case total < 500000:
		return 70
	default:
		return math.Min(100, 70+(total-500000)/100000)
	}
}

func matchesAny(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// TierInfo carries the tier plus its presentation metadata. The engine
// attaches the label, color and emoji tokens but never interprets them.
type TierInfo struct {
	Level models.RiskLevel
	Label string
	Color string
	Emoji string
}

// TierFor maps a (pre-rounded) score to its risk tier.
func TierFor(score float64) TierInfo {
	switch {
	case score < 25:
		return TierInfo{models.RiskLevelLow, "Low Risk", "green", "✅"}
	case score < 50:
		return TierInfo{models.RiskLevelMedium, "Medium Risk", "orange", "⚠️"}
	case score < 75:
		return TierInfo{models.RiskLevelHigh, "High Risk", "red", "🔴"}
	default:
		return TierInfo{models.RiskLevelCritical, "Critical Risk", "darkred", "⛔"}
	}
}

// Summary renders the fixed templated sentence for a score and record
// count, keyed by the same tier boundaries.
func Summary(score float64, processCount int) string {
	switch {
	case score < 25:
		return fmt.Sprintf("%d process(es) found with minimal risk factors", processCount)
	case score < 50:
		return fmt.Sprintf("%d process(es) with some concerns - review recommended", processCount)
	case score < 75:
		return fmt.Sprintf("%d process(es) with significant risk - careful review needed", processCount)
	default:
		return fmt.Sprintf("%d process(es) with major risk factors - high caution advised", processCount)
	}
}
