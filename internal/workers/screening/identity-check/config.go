// internal/workers/screening/identity-check/config.go
package identitycheck

import "time"

type Config struct {
	// Timeout bounds the whole check, including polling.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Minute,
	}
}
