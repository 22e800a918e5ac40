// internal/workers/study-tools/index-study-material/config.go
package indexstudymaterial

import "time"

type Config struct {
	IndexName   string
	Refresh     string // "true", "false" or "wait_for"
	Concurrency int
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		IndexName:   "study-materials",
		Refresh:     "false",
		Concurrency: 4,
		Timeout:     15 * time.Second,
	}
}
