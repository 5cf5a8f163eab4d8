package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the task-board CLI.
type Config struct {
	// APIBaseURL is the backend root, e.g. http://localhost:8000/api/v1.
	APIBaseURL string `validate:"required,url"`
	// RequestTimeout bounds every backend call.
	RequestTimeout time.Duration `validate:"gt=0"`
	// StatePath is the SQLite file holding the persisted client keys.
	StatePath string `validate:"required"`
	LogLevel  string `validate:"oneof=debug info warn error"`
}

// LoadDefaults populates c with the defaults used for local development.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8000/api/v1"
	c.RequestTimeout = 15 * time.Second
	c.StatePath = defaultStatePath()
	c.LogLevel = "info"
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "taskboard.db"
	}
	return filepath.Join(dir, "taskboard", "state.db")
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load builds a Config from defaults, then the config file named by -c or
// -config (if any), then flags. Later sources win.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
