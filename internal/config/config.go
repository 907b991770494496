package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalidAgentConfig = errors.New("config: invalid agent config")

// AgentConfig configures the reconcile agent process.
type AgentConfig struct {
	ID                   string
	Manifest             string
	AdminAddr            string
	AdminToken           string
	CorsOrigins          []string
	UpdateStatusInterval time.Duration
	ResetOn              []string
	QueueSize            int
	HistorySize          int
	Leader               bool
}

type agentFile struct {
	ID                   string   `toml:"id"`
	Manifest             string   `toml:"manifest"`
	AdminAddr            string   `toml:"admin_addr"`
	AdminToken           string   `toml:"admin_token"`
	CorsOrigins          []string `toml:"cors_origins"`
	UpdateStatusInterval string   `toml:"update_status_interval"`
	ResetOn              []string `toml:"reset_on"`
	QueueSize            int      `toml:"queue_size"`
	HistorySize          int      `toml:"history_size"`
	Leader               bool     `toml:"leader"`
}

// DefaultAgentConfig returns standalone defaults.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		ID:                   "converge.local",
		Manifest:             "manifest.toml",
		AdminAddr:            "127.0.0.1:7400",
		CorsOrigins:          []string{},
		UpdateStatusInterval: 5 * time.Minute,
		ResetOn:              []string{"config-changed", "upgrade-charm"},
		QueueSize:            64,
		HistorySize:          32,
		Leader:               true,
	}
}

// LoadAgentConfig overlays the keys present in the TOML file at path on the defaults.
// A relative manifest path resolves against the config file's directory.
func LoadAgentConfig(path string) (AgentConfig, error) {
	cfg := DefaultAgentConfig()

	var raw agentFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return AgentConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("id") {
		if id := strings.TrimSpace(raw.ID); id != "" {
			cfg.ID = id
		}
	}
	if meta.IsDefined("manifest") {
		cfg.Manifest = strings.TrimSpace(raw.Manifest)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("update_status_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.UpdateStatusInterval))
		if err != nil {
			return AgentConfig{}, fmt.Errorf("parse update_status_interval: %w", err)
		}
		cfg.UpdateStatusInterval = d
	}
	if meta.IsDefined("reset_on") {
		cfg.ResetOn = normalizeList(raw.ResetOn)
	}
	if meta.IsDefined("queue_size") {
		cfg.QueueSize = raw.QueueSize
	}
	if meta.IsDefined("history_size") {
		cfg.HistorySize = raw.HistorySize
	}
	if meta.IsDefined("leader") {
		cfg.Leader = raw.Leader
	}

	if cfg.Manifest != "" && !filepath.IsAbs(cfg.Manifest) {
		cfg.Manifest = filepath.Join(filepath.Dir(path), cfg.Manifest)
	}
	if err := ValidateAgentConfig(cfg); err != nil {
		return AgentConfig{}, err
	}
	return cfg, nil
}

func ValidateAgentConfig(cfg AgentConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAgentConfig)
	}
	if strings.TrimSpace(cfg.Manifest) == "" {
		return fmt.Errorf("%w: missing manifest", ErrInvalidAgentConfig)
	}
	if cfg.UpdateStatusInterval < 0 {
		return fmt.Errorf("%w: update_status_interval must not be negative", ErrInvalidAgentConfig)
	}
	if cfg.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidAgentConfig)
	}
	if cfg.HistorySize < 0 {
		return fmt.Errorf("%w: history_size must not be negative", ErrInvalidAgentConfig)
	}
	return nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
