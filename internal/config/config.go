package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDailyLimit is the number of daily-mode questions a user may answer
// per UTC day when the config leaves the limit unset.
const DefaultDailyLimit = 5

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Telegram struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	Quiz struct {
		DailyLimit   int    `yaml:"daily_limit"`
		QuestionsDir string `yaml:"questions_dir"`
		CacheTTL     string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DailyLimit returns the configured limit or the default when unset.
func (c Config) DailyLimit() int {
	if c.Quiz.DailyLimit > 0 {
		return c.Quiz.DailyLimit
	}
	return DefaultDailyLimit
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
