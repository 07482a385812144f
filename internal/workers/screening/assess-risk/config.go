// internal/workers/screening/assess-risk/config.go
package assessrisk

import "time"

type Config struct {
	// Timeout covers the whole assessment including the narrative call.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 90 * time.Second,
	}
}
