// internal/workers/study-tools/normalize-response/config.go
package normalizeresponse

import "time"

type Config struct {
	Timeout      time.Duration
	CacheEnabled bool
	// RejectInvalid fails the job when the artifact does not match its
	// schema. When false the violations are only logged.
	RejectInvalid bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		CacheEnabled:  true,
		RejectInvalid: true,
	}
}
