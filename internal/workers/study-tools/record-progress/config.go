// internal/workers/study-tools/record-progress/config.go
package recordprogress

import "time"

type Config struct {
	Timeout time.Duration
	// AcceptStats also records the subject map carried by stats artifacts.
	AcceptStats bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     5 * time.Second,
		AcceptStats: true,
	}
}
