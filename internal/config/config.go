// Package config reads and writes the TOML configuration file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for giftnest.
type Config struct {
	BaseDir     string         `toml:"base_dir"`
	LogDir      string         `toml:"log_dir"`
	SessionPath string         `toml:"session_path"`
	FrontURL    string         `toml:"front_url"`
	Database    DatabaseConfig `toml:"database"`
	Auth        AuthConfig     `toml:"auth"`
	SMTP        SMTPConfig     `toml:"smtp"`
	Vaults      []VaultConfig  `toml:"vaults"`
	Backup      BackupConfig   `toml:"backup"`
}

// DatabaseConfig uses a tagged union pattern: the Type field determines
// which other fields are relevant.
type DatabaseConfig struct {
	Type string `toml:"type"`           // "sqlite" or "memory"
	Path string `toml:"path,omitempty"` // only used for type=sqlite
}

// AuthConfig holds session token settings. The signing key is generated at
// config init and never shared.
type AuthConfig struct {
	TokenSecretPath string `toml:"token_secret_path"`
}

// SMTPConfig configures outbound invitation mail. Type "none" disables
// sending.
type SMTPConfig struct {
	Type     string `toml:"type"` // "smtp" or "none"
	Host     string `toml:"host,omitempty"`
	Port     int    `toml:"port,omitempty"`
	Username string `toml:"username,omitempty"`
	Password string `toml:"password,omitempty"`
	From     string `toml:"from,omitempty"`
}

// VaultConfig uses a tagged union pattern: the Type field determines which
// other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// BackupConfig holds paths to the age key pair protecting database
// snapshots and the name of the vault they are shipped to.
type BackupConfig struct {
	Vault          string `toml:"vault"`
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a Config with default paths under baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:     baseDir,
		LogDir:      filepath.Join(baseDir, "log"),
		SessionPath: filepath.Join(baseDir, "session"),
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: filepath.Join(baseDir, "giftnest.db"),
		},
		Auth: AuthConfig{
			TokenSecretPath: filepath.Join(baseDir, "keys", "token.secret"),
		},
		SMTP: SMTPConfig{Type: "none"},
		Backup: BackupConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "backup.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "backup.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
