// internal/workers/screening/identity-check/validation.go
package identitycheck

import "kye-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"cpf"},
		Properties: map[string]validation.Property{
			"cpf": {
				Type:        "string",
				Description: "CPF of the subject, with or without punctuation",
				MinLength:   intPtr(11),
				MaxLength:   intPtr(14),
			},
			"name": {
				Type:        "string",
				Description: "Full name for the identity transaction",
				MaxLength:   intPtr(200),
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int { return &i }
