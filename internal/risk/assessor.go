// internal/risk/assessor.go
package risk

import (
	"context"

	"kye-workers/internal/common/logger"
	"kye-workers/internal/models"
)

// Assessor is the single entry point of the risk engine. It composes the
// deterministic scorer and the narrative analyzer into one RiskAssessment.
type Assessor struct {
	scorer   *Scorer
	analyzer *Analyzer
	logger   logger.Logger
}

func NewAssessor(analyzer *Analyzer, log logger.Logger) *Assessor {
	return &Assessor{
		scorer:   NewScorer(),
		analyzer: analyzer,
		logger:   log,
	}
}

// Assess scores the records and merges in the narrative analysis. It never
// returns an error: analyzer degradation is carried inside the result as
// the fallback narrative. An empty record list short-circuits to the fixed
// clean-record result without touching the analyzer.
func (a *Assessor) Assess(ctx context.Context, records []models.ProcessRecord, subject models.SubjectContext) *models.RiskAssessment {
	if len(records) == 0 {
		return cleanResult()
	}

	// The analyzer call does not depend on the numeric score, so it runs
	// alongside the scorer.
	analysisCh := make(chan models.NarrativeAnalysis, 1)
	go func() {
		analysisCh <- a.analyzer.Analyze(ctx, records, subject)
	}()

	factors := a.scorer.Factors(records)
	score := a.scorer.CompositeScore(factors)
	tier := TierFor(score)

	analysis := <-analysisCh

	result := &models.RiskAssessment{
		Score:      score,
		Level:      tier.Level,
		LevelLabel: tier.Label,
		Color:      tier.Color,
		Emoji:      tier.Emoji,
		Factors:    factors,
		Analysis:   analysis,
		Summary:    Summary(score, len(records)),
	}

	a.logger.Info("Risk assessment completed", map[string]interface{}{
		"searchTerm":   subject.SearchTerm,
		"processCount": len(records),
		"score":        score,
		"riskLevel":    string(tier.Level),
		"llmAvailable": analysis.LLMAvailable,
	})

	return result
}

// cleanResult is the fixed assessment for a subject with no judicial
// processes at all.
func cleanResult() *models.RiskAssessment {
	return &models.RiskAssessment{
		Score:      0,
		Level:      models.RiskLevelLow,
		LevelLabel: "Low Risk",
		Color:      "green",
		Emoji:      "✅",
		Factors:    models.FactorScores{},
		Analysis: models.NarrativeAnalysis{
			LLMAvailable:   true,
			Insights:       "No judicial processes found. Clean background check.",
			RedFlags:       []string{},
			Recommendation: "Approved for employment - clean record",
		},
		Summary: "Clean record with no judicial processes",
	}
}
