package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frontnickson/toolrole-sub001/internal/flagx"
)

// fileConfig is the on-disk shape. Empty fields leave the current value.
type fileConfig struct {
	APIBaseURL     string   `json:"api_base_url" yaml:"api_base_url"`
	RequestTimeout duration `json:"request_timeout" yaml:"request_timeout"`
	StatePath      string   `json:"state_path" yaml:"state_path"`
	LogLevel       string   `json:"log_level" yaml:"log_level"`
}

// duration accepts "15s"-style strings or integer nanoseconds.
type duration time.Duration

func (d *duration) set(v any) error {
	switch x := v.(type) {
	case string:
		p, err := time.ParseDuration(x)
		if err != nil {
			return err
		}
		*d = duration(p)
	case float64:
		*d = duration(time.Duration(x))
	case int:
		*d = duration(time.Duration(x))
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *duration) UnmarshalYAML(n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

// parseFile overlays cfg with the file named by -c/-config in args. Files
// ending in .yaml or .yml are read as YAML, anything else as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	if fc.RequestTimeout != 0 {
		cfg.RequestTimeout = time.Duration(fc.RequestTimeout)
	}
	if fc.StatePath != "" {
		cfg.StatePath = fc.StatePath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	return nil
}
