package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:     "/home/user/.local/share/giftnest",
		LogDir:      "/home/user/.local/share/giftnest/log",
		SessionPath: "/home/user/.local/share/giftnest/session",
		FrontURL:    "https://gifts.example.com",
		Database:    DatabaseConfig{Type: "sqlite", Path: "/data/giftnest.db"},
		Auth:        AuthConfig{TokenSecretPath: "/data/keys/token.secret"},
		SMTP: SMTPConfig{
			Type: "smtp",
			Host: "mail.example.com",
			Port: 587,
			From: "giftnest@example.com",
		},
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"},
		},
		Backup: BackupConfig{
			Vault:          "local",
			PublicKeyPath:  "/data/keys/backup.pub",
			PrivateKeyPath: "/data/keys/backup.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.SessionPath != original.SessionPath {
		t.Errorf("SessionPath = %q, want %q", got.SessionPath, original.SessionPath)
	}
	if got.FrontURL != original.FrontURL {
		t.Errorf("FrontURL = %q, want %q", got.FrontURL, original.FrontURL)
	}
	if got.Database.Type != "sqlite" || got.Database.Path != "/data/giftnest.db" {
		t.Errorf("Database = %+v", got.Database)
	}
	if got.Auth.TokenSecretPath != original.Auth.TokenSecretPath {
		t.Errorf("Auth.TokenSecretPath = %q, want %q", got.Auth.TokenSecretPath, original.Auth.TokenSecretPath)
	}
	if got.SMTP.Host != "mail.example.com" || got.SMTP.Port != 587 {
		t.Errorf("SMTP = %+v", got.SMTP)
	}
	if len(got.Vaults) != 1 {
		t.Fatalf("len(Vaults) = %d, want 1", len(got.Vaults))
	}
	if got.Vaults[0].Type != "filesystem" || got.Vaults[0].FSVaultRoot != "/backup/vault" {
		t.Errorf("Vaults[0] = %+v", got.Vaults[0])
	}
	if got.Backup.Vault != "local" {
		t.Errorf("Backup.Vault = %q, want %q", got.Backup.Vault, "local")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/giftnest")

	if cfg.BaseDir != "/data/giftnest" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/giftnest")
	}
	if cfg.LogDir != "/data/giftnest/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/giftnest/log")
	}
	if cfg.SessionPath != "/data/giftnest/session" {
		t.Errorf("SessionPath = %q, want %q", cfg.SessionPath, "/data/giftnest/session")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.Path != "/data/giftnest/giftnest.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Auth.TokenSecretPath != "/data/giftnest/keys/token.secret" {
		t.Errorf("Auth.TokenSecretPath = %q", cfg.Auth.TokenSecretPath)
	}
	if cfg.SMTP.Type != "none" {
		t.Errorf("SMTP.Type = %q, want %q", cfg.SMTP.Type, "none")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "giftnest.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "giftnest.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Error("second Init() succeeded, want error")
		}
	})
}
