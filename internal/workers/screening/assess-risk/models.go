// internal/workers/screening/assess-risk/models.go
package assessrisk

import "kye-workers/internal/models"

type Input struct {
	Processes  []models.ProcessRecord `json:"processes"`
	SearchTerm string                 `json:"searchTerm"`
}

type Output struct {
	RiskAssessment *models.RiskAssessment `json:"riskAssessment"`
}
