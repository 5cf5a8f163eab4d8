// Package config loads runtime configuration for the task-board CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config; YAML when the name
//     ends in .yaml or .yml, JSON otherwise.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-t int      request timeout (seconds)
//	-s string   local state database path
//	-l string   log level (debug, info, warn, error)
//
// # File schema
//
//	{
//	  "api_base_url": "https://tasks.example.com/api/v1",
//	  "request_timeout": "15s",
//	  "state_path": "/home/ann/.config/taskboard/state.db",
//	  "log_level": "warn"
//	}
//
// The result is checked with (*Config).Validate before Load returns it.
package config
