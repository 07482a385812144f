package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func subjectSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"searchTerm"},
		Properties: map[string]Property{
			"searchTerm": {
				Type:      "string",
				MinLength: intPtr(1),
				MaxLength: intPtr(20),
			},
			"searchType": {
				Type: "string",
				Enum: []string{"cpf", "name", "process_number"},
			},
			"score": {
				Type:    "number",
				Minimum: floatPtr(0),
				Maximum: floatPtr(100),
			},
			"cpf": {
				Type:    "string",
				Pattern: strPtr(`^\d{11}$`),
			},
			"processes": {
				Type:  "array",
				Items: &Property{Type: "string"},
			},
			"assessment": {
				Type:     "object",
				Required: []string{"level"},
				Properties: map[string]Property{
					"level": {Type: "string"},
				},
			},
		},
		AdditionalProperties: true,
	}
}

// ==========================
// ValidateInput Tests
// ==========================

func TestValidateInputAccepts(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"searchTerm": "12345678901",
		"searchType": "cpf",
		"score":      42.5,
		"processes":  []interface{}{"0001234-56.2023.8.26.0100"},
		"assessment": map[string]interface{}{"level": "medium"},
		"extra":      "workflow variable from an earlier step",
	}, subjectSchema())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateInputRequiredField(t *testing.T) {
	result := ValidateInput(map[string]interface{}{}, subjectSchema())

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "searchTerm", result.Errors[0].Field)
	assert.Equal(t, "REQUIRED_FIELD_MISSING", result.Errors[0].Code)
}

func TestValidateInputConstraints(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
		field string
		code  string
	}{
		{
			"wrong type",
			map[string]interface{}{"searchTerm": 42.0},
			"searchTerm", "INVALID_TYPE",
		},
		{
			"too long",
			map[string]interface{}{"searchTerm": "this term is way over the limit"},
			"searchTerm", "MAX_LENGTH_VIOLATION",
		},
		{
			"enum violation",
			map[string]interface{}{"searchTerm": "x", "searchType": "email"},
			"searchType", "INVALID_ENUM_VALUE",
		},
		{
			"above maximum",
			map[string]interface{}{"searchTerm": "x", "score": 150.0},
			"score", "MAXIMUM_VIOLATION",
		},
		{
			"pattern mismatch",
			map[string]interface{}{"searchTerm": "x", "cpf": "123.456.789-01"},
			"cpf", "PATTERN_MISMATCH",
		},
		{
			"bad array item",
			map[string]interface{}{"searchTerm": "x", "processes": []interface{}{1.0}},
			"processes[0]", "INVALID_TYPE",
		},
		{
			"nested required",
			map[string]interface{}{"searchTerm": "x", "assessment": map[string]interface{}{}},
			"assessment.level", "REQUIRED_FIELD_MISSING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, subjectSchema())

			require.False(t, result.Valid)
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.Equal(t, tt.code, result.Errors[0].Code)
		})
	}
}

func TestValidateInputRejectsExtraFieldWhenClosed(t *testing.T) {
	schema := subjectSchema()
	schema.AdditionalProperties = false

	result := ValidateInput(map[string]interface{}{
		"searchTerm": "x",
		"surprise":   true,
	}, schema)

	require.False(t, result.Valid)
	assert.Equal(t, "EXTRA_FIELD", result.Errors[0].Code)
}

// ==========================
// ValidationResult Helper Tests
// ==========================

func TestValidationResultHelpers(t *testing.T) {
	result := ValidateInput(map[string]interface{}{
		"assessment": map[string]interface{}{},
	}, subjectSchema())

	require.False(t, result.Valid)
	assert.True(t, result.HasErrors("searchTerm"))
	assert.False(t, result.HasErrors("score"))

	messages := result.GetErrorMessages()
	assert.Len(t, messages, len(result.Errors))
	assert.Contains(t, messages[0], ":")

	nested := result.GetErrorsForField("assessment")
	require.Len(t, nested, 1)
	assert.Equal(t, "assessment.level", nested[0].Field)
}

// ==========================
// Task Naming Tests
// ==========================

func TestValidateTaskNaming(t *testing.T) {
	assert.NoError(t, ValidateTaskNaming("screening.search-processes"))
	assert.NoError(t, ValidateTaskNaming("screening.assess-risk"))

	assert.Error(t, ValidateTaskNaming("searchProcesses"))
	assert.Error(t, ValidateTaskNaming("screening.Search-Processes"))
	assert.Error(t, ValidateTaskNaming("screening.search_processes"))
	assert.Error(t, ValidateTaskNaming("screening."))
}

// ==========================
// Schema Parsing Tests
// ==========================

func TestGetSchemaFromJSON(t *testing.T) {
	schema, err := GetSchemaFromJSON(`{
		"type": "object",
		"required": ["fileContent"],
		"properties": {
			"fileContent": {"type": "string", "minLength": 1}
		}
	}`)

	require.NoError(t, err)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"fileContent"}, schema.Required)
	require.Contains(t, schema.Properties, "fileContent")
	require.NotNil(t, schema.Properties["fileContent"].MinLength)
	assert.Equal(t, 1, *schema.Properties["fileContent"].MinLength)

	_, err = GetSchemaFromJSON(`{not json`)
	assert.Error(t, err)
}

// ==========================
// Contact Format Tests
// ==========================

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("compliance@example.com"))
	assert.True(t, ValidateEmail("first.last+alerts@sub.example.com.br"))

	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
	assert.False(t, ValidateEmail(""))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+5511999990000"))
	assert.True(t, ValidatePhone("(11) 99999-0000"))

	assert.False(t, ValidatePhone("12345"))
	assert.False(t, ValidatePhone("call me maybe"))
}
