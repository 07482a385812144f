// internal/workers/screening/search-processes/models.go
package searchprocesses

import "kye-workers/internal/models"

// Search type values accepted in Input.SearchType.
const (
	SearchTypeCPF           = "cpf"
	SearchTypeName          = "name"
	SearchTypeProcessNumber = "process_number"
)

type Input struct {
	SearchTerm string `json:"searchTerm"`
	SearchType string `json:"searchType"`
}

type Output struct {
	Processes    []models.ProcessRecord `json:"processes"`
	ProcessCount int                    `json:"processCount"`
	SearchTerm   string                 `json:"searchTerm"`
	SearchType   string                 `json:"searchType"`
	CacheHit     bool                   `json:"cacheHit"`
	// NadaConsta is true when the search returned no records.
	NadaConsta bool `json:"nadaConsta"`
}
