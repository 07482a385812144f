// internal/workers/screening/assess-risk/validation.go
package assessrisk

import "kye-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"processes"},
		Properties: map[string]validation.Property{
			"processes": {
				Type:        "array",
				Description: "Judicial process records for the subject; empty means nada consta",
			},
			"searchTerm": {
				Type:        "string",
				Description: "Identifier the records were searched by",
			},
		},
		AdditionalProperties: true,
	}
}
