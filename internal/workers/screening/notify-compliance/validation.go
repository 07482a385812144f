// internal/workers/screening/notify-compliance/validation.go
package notifycompliance

import "kye-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"riskAssessment"},
		Properties: map[string]validation.Property{
			"riskAssessment": {
				Type:        "object",
				Description: "Assessment produced by the risk engine",
				Required:    []string{"score", "level"},
				Properties: map[string]validation.Property{
					"score": {
						Type:    "number",
						Minimum: floatPtr(0),
						Maximum: floatPtr(100),
					},
					"level": {
						Type: "string",
						Enum: []string{"low", "medium", "high", "critical"},
					},
				},
			},
			"searchTerm": {
				Type:        "string",
				Description: "Identifier the subject was screened by",
			},
			"searchType": {
				Type:        "string",
				Description: "How the subject was searched (cpf, name, process_number)",
			},
		},
		AdditionalProperties: true,
	}
}

func floatPtr(f float64) *float64 { return &f }
