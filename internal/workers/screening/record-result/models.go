// internal/workers/screening/record-result/models.go
package recordresult

import "kye-workers/internal/models"

type Input struct {
	SearchTerm     string                 `json:"searchTerm"`
	SearchType     string                 `json:"searchType"`
	Processes      []models.ProcessRecord `json:"processes"`
	RiskAssessment *models.RiskAssessment `json:"riskAssessment"`
	// ProcessDetails carries detail payloads fetched for individual
	// processes, keyed by CNJ number. Merged into the history entry.
	ProcessDetails map[string]map[string]interface{} `json:"processDetails,omitempty"`
}

type Output struct {
	RecordID string `json:"recordId"`
	Indexed  bool   `json:"indexed"`
}
