// internal/workers/screening/search-processes/validation.go
package searchprocesses

import "kye-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"searchTerm"},
		Properties: map[string]validation.Property{
			"searchTerm": {
				Type:        "string",
				Description: "CPF, full name or CNJ process number to search for",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(200),
			},
			"searchType": {
				Type:        "string",
				Description: "One of cpf, name or process_number; defaults to cpf",
				MaxLength:   intPtr(32),
			},
		},
		// Workflow variables carry outputs of earlier steps alongside this
		// worker's inputs.
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int { return &i }
