// internal/workers/screening/bulk-search/config.go
package bulksearch

import "time"

type Config struct {
	Timeout time.Duration
	// Concurrency bounds the number of subjects screened in parallel.
	Concurrency int
	// MaxSubjects caps one bulk job; larger files must be split upstream.
	MaxSubjects int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     5 * time.Minute,
		Concurrency: 4,
		MaxSubjects: 100,
	}
}
