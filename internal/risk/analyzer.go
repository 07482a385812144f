// internal/risk/analyzer.go
package risk

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"kye-workers/internal/common/format"
	"kye-workers/internal/common/logger"
	"kye-workers/internal/models"
)

// TextGenerator is the seam to the generative text model. The concrete
// implementation lives in the genai package; tests substitute a fake.
type TextGenerator interface {
	Available() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Fixed fallback narrative. Every analyzer failure path yields this exact
// structure; no error ever propagates to the caller.
const (
	fallbackInsights       = "Automated analysis unavailable. Manual review recommended."
	fallbackRecommendation = "manual_review"
	defaultRecommendation  = "review"
)

// Analyzer produces the narrative portion of an assessment. Availability
// is computed at most once per instance and cached; build a new Analyzer
// to re-check configuration.
type Analyzer struct {
	gen    TextGenerator
	logger logger.Logger

	availOnce sync.Once
	available bool
}

func NewAnalyzer(gen TextGenerator, log logger.Logger) *Analyzer {
	return &Analyzer{gen: gen, logger: log}
}

// Available reports whether the generative model can be used. The check
// runs once; concurrent readers see the memoized value.
func (a *Analyzer) Available() bool {
	a.availOnce.Do(func() {
		a.available = a.gen != nil && a.gen.Available()
	})
	return a.available
}

// Analyze summarizes the records, invokes the model and parses its reply.
// All failure modes collapse into the fixed fallback narrative.
func (a *Analyzer) Analyze(ctx context.Context, records []models.ProcessRecord, subject models.SubjectContext) models.NarrativeAnalysis {
	if !a.Available() {
		return fallbackAnalysis()
	}

	prompt := a.buildPrompt(summarizeProcesses(records), subject)

	response, err := a.gen.GenerateText(ctx, prompt)
	if err != nil {
		a.logger.Warn("Narrative generation failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return fallbackAnalysis()
	}
	if strings.TrimSpace(response) == "" {
		return fallbackAnalysis()
	}

	return parseResponse(response)
}

func fallbackAnalysis() models.NarrativeAnalysis {
	return models.NarrativeAnalysis{
		LLMAvailable:   false,
		Insights:       fallbackInsights,
		RedFlags:       []string{},
		Recommendation: fallbackRecommendation,
	}
}

// summarizeProcesses condenses the record list into one pipe-joined line:
// total count, defendant vs plaintiff role counts, total financial
// exposure and up to five distinct case classes with occurrence counts.
func summarizeProcesses(records []models.ProcessRecord) string {
	if len(records) == 0 {
		return "No judicial processes found."
	}

	parts := []string{fmt.Sprintf("Total processes: %d", len(records))}

	caseTypes := make(map[string]int)
	var caseTypeOrder []string
	defendantRoles, plaintiffRoles := 0, 0
	var totalValue float64

	for _, rec := range records {
		className := rec.ClasseProcessual.Nome
		if className == "" {
			className = "Unknown"
		}
		if _, seen := caseTypes[className]; !seen {
			caseTypeOrder = append(caseTypeOrder, className)
		}
		caseTypes[className]++

		for _, party := range rec.Partes {
			switch {
			case matchesAny(party.Tipo, defendantKeywords):
				defendantRoles++
			case matchesAny(party.Tipo, plaintiffKeywords):
				plaintiffRoles++
			}
		}

		totalValue += rec.ValorCausa.Amount()
	}

	parts = append(parts, fmt.Sprintf("Defendant in %d cases, Plaintiff in %d cases", defendantRoles, plaintiffRoles))
	parts = append(parts, fmt.Sprintf("Total financial exposure: %s", format.FormatCurrency(totalValue)))

	if len(caseTypeOrder) > 5 {
		caseTypeOrder = caseTypeOrder[:5]
	}
	typeParts := make([]string, 0, len(caseTypeOrder))
	for _, name := range caseTypeOrder {
		typeParts = append(typeParts, fmt.Sprintf("%s (%d)", name, caseTypes[name]))
	}
	parts = append(parts, "Case types: "+strings.Join(typeParts, ", "))

	return strings.Join(parts, " | ")
}

func (a *Analyzer) buildPrompt(processSummary string, subject models.SubjectContext) string {
	searchTerm := subject.SearchTerm
	if searchTerm == "" {
		searchTerm = "N/A"
	}

	return fmt.Sprintf(`You are a Know-Your-Employee (KYE) risk analyst for HR departments in Brazil. Analyze the following judicial process information and provide a brief risk assessment.

PERSON INFORMATION:
- Name/CPF: %s

JUDICIAL PROCESSES SUMMARY:
%s

Provide a concise analysis in the following format:

RISK LEVEL: [Low/Medium/High/Critical]

KEY INSIGHTS:
- [2-3 bullet points about the main findings]

RED FLAGS:
- [List specific concerns, or write "None identified" if clean]

RECOMMENDATION:
- [One sentence recommendation: approve, review with caution, or reject]

Keep your response under 200 words and focus on employment risk factors.`, searchTerm, processSummary)
}

// parseResponse extracts the labeled sections from the model's free-text
// reply. Section headers are detected case-insensitively; within the red
// flags section, "none identified" / "none" bullets are dropped; in the
// recommendation section the last non-bulleted line wins.
func parseResponse(response string) models.NarrativeAnalysis {
	result := models.NarrativeAnalysis{
		LLMAvailable:   true,
		RedFlags:       []string{},
		Recommendation: defaultRecommendation,
		RawResponse:    response,
	}

	var insights []string
	section := ""

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		switch {
		case strings.Contains(upper, "KEY INSIGHTS:") || strings.Contains(upper, "INSIGHTS:"):
			section = "insights"
		case strings.Contains(upper, "RED FLAGS:") || strings.Contains(upper, "RED FLAG:"):
			section = "red_flags"
		case strings.Contains(upper, "RECOMMENDATION:"):
			section = "recommendation"
		case section == "insights" && strings.HasPrefix(line, "-"):
			insights = append(insights, strings.TrimSpace(line[1:]))
		case section == "red_flags" && strings.HasPrefix(line, "-"):
			flag := strings.TrimSpace(line[1:])
			lowered := strings.ToLower(flag)
			if lowered != "none identified" && lowered != "none" {
				result.RedFlags = append(result.RedFlags, flag)
			}
		case section == "recommendation" && !strings.HasPrefix(line, "-"):
			result.Recommendation = line
		}
	}

	// A model that ignored the bullet format still yields something
	// readable: fall back to the raw text.
	if len(insights) > 0 {
		result.Insights = strings.Join(insights, "\n")
	} else {
		result.Insights = response
	}

	return result
}
