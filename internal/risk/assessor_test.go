package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kye-workers/internal/common/logger"
	"kye-workers/internal/models"
)

func newTestAssessor(t *testing.T, gen TextGenerator) *Assessor {
	return NewAssessor(NewAnalyzer(gen, logger.NewTestLogger(t)), logger.NewTestLogger(t))
}

func TestAssessEmptyRecordsReturnsCleanResult(t *testing.T) {
	gen := &fakeGenerator{available: true, response: "should never be called"}
	assessor := newTestAssessor(t, gen)

	result := assessor.Assess(context.Background(), nil, models.SubjectContext{SearchTerm: "anything"})

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, models.RiskLevelLow, result.Level)
	assert.Equal(t, "Low Risk", result.LevelLabel)
	assert.Equal(t, models.FactorScores{}, result.Factors)
	assert.True(t, result.Analysis.LLMAvailable)
	assert.Equal(t, "No judicial processes found. Clean background check.", result.Analysis.Insights)
	assert.Equal(t, "Approved for employment - clean record", result.Analysis.Recommendation)
	assert.Empty(t, result.Analysis.RedFlags)
	assert.Equal(t, "Clean record with no judicial processes", result.Summary)

	// The analyzer must not be touched on the clean path.
	assert.Empty(t, gen.prompts)
}

func TestAssessEndToEndScenario(t *testing.T) {
	records := []models.ProcessRecord{
		record("Ação Criminal", "réu", 20000),
		record("Ação Civil", "autor", 5000),
		record("Reclamação Trabalhista", "reu", 0),
	}

	assessor := newTestAssessor(t, &fakeGenerator{available: false})
	result := assessor.Assess(context.Background(), records, models.SubjectContext{SearchTerm: "12345678901"})

	assert.Equal(t, 50.0, result.Factors.ProcessCountScore)
	assert.InDelta(t, 66.7, result.Factors.DefendantScore, 0.05)
	assert.InDelta(t, 82.0, result.Factors.SeverityScore, 0.0001)
	assert.Equal(t, 35.0, result.Factors.FinancialScore)

	// 0.25*50 + 0.30*66.67 + 0.25*82 + 0.20*35 = 60.0
	assert.Equal(t, 60.0, result.Score)
	assert.Equal(t, models.RiskLevelHigh, result.Level)
	assert.Equal(t, "3 process(es) with significant risk - careful review needed", result.Summary)

	assert.False(t, result.Analysis.LLMAvailable)
	assert.Equal(t, "manual_review", result.Analysis.Recommendation)
}

func TestAssessMergesNarrative(t *testing.T) {
	response := `KEY INSIGHTS:
- One labor dispute

RED FLAGS:
- None identified

RECOMMENDATION:
Approve`

	assessor := newTestAssessor(t, &fakeGenerator{available: true, response: response})
	records := []models.ProcessRecord{record("Reclamação Trabalhista", "autor", 1000)}

	result := assessor.Assess(context.Background(), records, models.SubjectContext{SearchTerm: "x"})

	require.True(t, result.Analysis.LLMAvailable)
	assert.Equal(t, "One labor dispute", result.Analysis.Insights)
	assert.Empty(t, result.Analysis.RedFlags)
	assert.Equal(t, "Approve", result.Analysis.Recommendation)

	// Deterministic side is untouched by the narrative.
	assert.Greater(t, result.Score, 0.0)
	assert.Equal(t, 20.0, result.Factors.ProcessCountScore)
}

func TestAssessDegradedNarrativeKeepsDeterministicResult(t *testing.T) {
	records := []models.ProcessRecord{
		record("Ação Penal", "réu", 600000),
		record("Ação Penal", "executado", 0),
	}

	assessor := newTestAssessor(t, &fakeGenerator{available: false})
	result := assessor.Assess(context.Background(), records, models.SubjectContext{})

	assert.False(t, result.Analysis.LLMAvailable)
	assert.Greater(t, result.Score, 0.0)
	assert.NotEmpty(t, result.LevelLabel)
	assert.NotEmpty(t, result.Summary)
}

func TestAssessDeterministicAcrossCalls(t *testing.T) {
	records := someRecords()
	assessor := newTestAssessor(t, &fakeGenerator{available: false})

	first := assessor.Assess(context.Background(), records, models.SubjectContext{SearchTerm: "a"})
	second := assessor.Assess(context.Background(), records, models.SubjectContext{SearchTerm: "a"})

	assert.Equal(t, first, second)
}
