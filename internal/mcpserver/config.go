package mcpserver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the MCP server configuration loaded from mcp.yaml. Everything
// is optional; a missing file yields the built-in defaults.
type Config struct {
	Instructions string                  `yaml:"instructions"`
	Groups       map[string]GroupConfig  `yaml:"groups"`
	Overrides    map[string]ToolOverride `yaml:"overrides"`
	Limits       Limits                  `yaml:"limits"`
}

// GroupConfig customizes one MCP tool group.
type GroupConfig struct {
	Description string `yaml:"description"`
}

// ToolOverride allows per-tool customization.
type ToolOverride struct {
	Description string `yaml:"description"`
	ReadOnly    *bool  `yaml:"readonly"`
	Destructive *bool  `yaml:"destructive"`
	Idempotent  *bool  `yaml:"idempotent"`
}

// Limits caps list results when a tool call omits its own bound.
type Limits struct {
	HistoryDays       int `yaml:"history_days"`
	RecentCompletions int `yaml:"recent_completions"`
}

// LoadConfig reads and parses the mcp.yaml configuration file. An empty
// path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return ParseConfig(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses mcp.yaml configuration from raw bytes.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse mcp config: %w", err)
	}

	if cfg.Instructions == "" {
		cfg.Instructions = "Unwind task and worry assistant — item lists, search, completion, planning stats, and reassurance tools. Every tool acts on the calling user's own data."
	}
	if cfg.Limits.HistoryDays <= 0 {
		cfg.Limits.HistoryDays = 7
	}
	if cfg.Limits.RecentCompletions <= 0 {
		cfg.Limits.RecentCompletions = 5
	}

	return &cfg, nil
}

// groupDescription returns the configured description for a group, or the
// fallback.
func (c *Config) groupDescription(name, fallback string) string {
	if gc, ok := c.Groups[name]; ok && gc.Description != "" {
		return gc.Description
	}
	return fallback
}
