// internal/workers/screening/bulk-search/models.go
package bulksearch

type Input struct {
	// FileContent is the raw text of the uploaded file (CSV or free text);
	// CPFs are extracted wherever they appear.
	FileContent string `json:"fileContent"`
}

// ItemResult is the per-subject outcome. Error is set when that subject
// could not be screened; the rest of the batch is unaffected.
type ItemResult struct {
	CPF          string  `json:"cpf"`
	ProcessCount int     `json:"processCount"`
	RiskScore    float64 `json:"riskScore"`
	RiskLevel    string  `json:"riskLevel"`
	Error        string  `json:"error,omitempty"`
}

type Output struct {
	Results   []ItemResult `json:"results"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	// CleanCount is the number of subjects with zero process records
	// (nada consta); FoundCount those with at least one.
	CleanCount int `json:"cleanCount"`
	FoundCount int `json:"foundCount"`
	// ByRiskLevel counts successfully screened subjects per tier.
	ByRiskLevel map[string]int `json:"byRiskLevel"`
	// CSVExport is the batch result rendered as CSV, one row per subject.
	CSVExport string `json:"csvExport"`
}
