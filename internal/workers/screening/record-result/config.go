// internal/workers/screening/record-result/config.go
package recordresult

import "time"

type Config struct {
	Timeout time.Duration
	// Index is the Elasticsearch index screening results are mirrored to.
	Index string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Index:   "screening-results",
	}
}
