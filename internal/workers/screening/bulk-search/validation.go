// internal/workers/screening/bulk-search/validation.go
package bulksearch

import "kye-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"fileContent"},
		Properties: map[string]validation.Property{
			"fileContent": {
				Type:        "string",
				Description: "Raw text of the uploaded batch file",
				MinLength:   intPtr(1),
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int { return &i }
