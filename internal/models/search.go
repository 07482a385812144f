// internal/models/search.go
package models

// SubjectContext identifies who is being screened. SearchTerm is a CPF or a
// full name; the engine never parses it, it only echoes it into the LLM
// prompt and the history record.
type SubjectContext struct {
	SearchTerm string `json:"search_term"`
}

// SearchRecord is one entry of the search history file.
type SearchRecord struct {
	ID                string                            `json:"id"`
	SearchTerm        string                            `json:"termo"`
	SearchType        string                            `json:"tipo"`
	Timestamp         string                            `json:"data"`
	Resultados        []ProcessRecord                   `json:"resultados"`
	DetalhesProcessos map[string]map[string]interface{} `json:"detalhes_processos,omitempty"`
	Assessment        *RiskAssessment                   `json:"risk_assessment,omitempty"`
}
