// internal/workers/screening/notify-compliance/models.go
package notifycompliance

import "kye-workers/internal/models"

type Input struct {
	SearchTerm     string                 `json:"searchTerm"`
	SearchType     string                 `json:"searchType"`
	RiskAssessment *models.RiskAssessment `json:"riskAssessment"`
}

type Output struct {
	Notified bool     `json:"notified"`
	Channels []string `json:"channels"`
}
