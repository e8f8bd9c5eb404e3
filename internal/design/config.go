package design

import (
	"os"
	"strings"
	"time"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
)

const defaultTimeout = 30 * time.Second

// Config captures connection settings for the Penpot design tool.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

// Enabled reports whether enough settings are present to attempt requests.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

// LoadConfig reads design-tool settings from the environment. PENPOT_API_URL
// points at the Penpot root, e.g. http://localhost:9001.
func LoadConfig() Config {
	cfg := Config{
		BaseURL:  strings.TrimSpace(os.Getenv("PENPOT_API_URL")),
		Email:    strings.TrimSpace(os.Getenv("PENPOT_EMAIL")),
		Password: os.Getenv("PENPOT_PASSWORD"),
		Timeout:  defaultTimeout,
	}
	if raw := strings.TrimSpace(os.Getenv("PENPOT_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			common.Logger().Warn("design: invalid PENPOT_TIMEOUT, using default", "value", raw)
		} else {
			cfg.Timeout = parsed
		}
	}
	return cfg
}
