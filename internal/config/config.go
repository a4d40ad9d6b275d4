// Package config provides repository configuration management for
// git-backport, read from an optional YAML file under .git.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBackupNamespace is the ref namespace for backup refs
const DefaultBackupNamespace = "refs/backports"

const configFileName = "backport_config"

// RepoConfig represents the repository configuration
type RepoConfig struct {
	// BackupNamespace overrides the ref namespace backup refs are created under
	BackupNamespace string `yaml:"backupNamespace,omitempty"`
	// CommitterName overrides git config user.name for synthesized commits
	CommitterName string `yaml:"committerName,omitempty"`
	// CommitterEmail overrides git config user.email for synthesized commits
	CommitterEmail string `yaml:"committerEmail,omitempty"`
}

// Load reads the repository configuration from .git/backport_config.
// A missing file yields the defaults.
func Load(repoRoot string) (*RepoConfig, error) {
	configPath := filepath.Join(repoRoot, ".git", configFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return &RepoConfig{BackupNamespace: DefaultBackupNamespace}, nil
	}

	var cfg RepoConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}
	if cfg.BackupNamespace == "" {
		cfg.BackupNamespace = DefaultBackupNamespace
	}

	return &cfg, nil
}
