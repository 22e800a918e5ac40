// internal/workers/study-tools/format-progress-update/config.go
package formatprogressupdate

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 2 * time.Second}
}
