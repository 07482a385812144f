// internal/workers/screening/notify-compliance/config.go
package notifycompliance

import "time"

type Config struct {
	Timeout time.Duration

	EmailEnabled bool
	FromEmail    string
	ToEmails     []string

	SMSEnabled   bool
	PhoneNumbers []string

	// RiskThreshold is the lowest tier that triggers a notification.
	RiskThreshold string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		RiskThreshold: "high",
	}
}
