// internal/workers/study-tools/fetch-tool-response/config.go
package fetchtoolresponse

import "time"

type Config struct {
	BackendURL string
	APIKey     string
	ToolsPath  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RateLimit  float64 // requests per second, 0 disables
	Burst      int
}

func LoadConfig() *Config {
	return &Config{
		ToolsPath:  "/tools",
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
	}
}
