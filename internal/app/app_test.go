package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"giftnest/internal/app"
	"giftnest/internal/config"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	baseDir := t.TempDir()
	cfg := config.NewConfig(baseDir)
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.FrontURL = "https://gifts.example.com"

	a, err := app.New(cfg, "Test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAppWiring(t *testing.T) {
	a := newTestApp(t)

	user, err := a.Service().CreateUser("alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	session, err := a.Service().Login("alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.User.UUID != user.UUID {
		t.Errorf("session user = %q, want %q", session.User.UUID, user.UUID)
	}
}

func TestSessionLifecycle(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.CurrentSession(); !errors.Is(err, app.ErrNotLoggedIn) {
		t.Errorf("CurrentSession() before login error = %v, want ErrNotLoggedIn", err)
	}

	if _, err := a.Service().CreateUser("alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	session, err := a.Service().Login("alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	token, err := a.Tokens().Issue(session)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := a.SaveSession(token); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	claims, err := a.CurrentSession()
	if err != nil {
		t.Fatalf("CurrentSession() error = %v", err)
	}
	if claims.Subject != session.User.UUID {
		t.Errorf("claims subject = %q, want %q", claims.Subject, session.User.UUID)
	}
	if claims.DerivedKey != session.DerivedKey {
		t.Error("claims derived key does not match session")
	}

	if err := a.ClearSession(); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	if _, err := a.CurrentSession(); !errors.Is(err, app.ErrNotLoggedIn) {
		t.Errorf("CurrentSession() after logout error = %v, want ErrNotLoggedIn", err)
	}

	// Clearing twice is not an error.
	if err := a.ClearSession(); err != nil {
		t.Errorf("second ClearSession() error = %v", err)
	}
}

func TestTamperedSessionRejected(t *testing.T) {
	a := newTestApp(t)

	if err := a.SaveSession("not.a.token"); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if _, err := a.CurrentSession(); !errors.Is(err, app.ErrNotLoggedIn) {
		t.Errorf("CurrentSession() with garbage token error = %v, want ErrNotLoggedIn", err)
	}
}

func TestBackupServiceRequiresVault(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.BackupService(context.Background()); err == nil {
		t.Error("BackupService() without a configured vault succeeded")
	}
}

func TestBackupServiceMemoryVault(t *testing.T) {
	baseDir := t.TempDir()
	cfg := config.NewConfig(baseDir)
	cfg.Database = config.DatabaseConfig{Type: "memory"}
	cfg.Vaults = []config.VaultConfig{{Type: "memory", Name: "primary"}}
	cfg.Backup.Vault = "primary"

	a, err := app.New(cfg, "Test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	cipher, err := a.BackupCipher()
	if err != nil {
		t.Fatalf("BackupCipher() error = %v", err)
	}
	if err := cipher.Setup("passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	svc, err := a.BackupService(context.Background())
	if err != nil {
		t.Fatalf("BackupService() error = %v", err)
	}
	name, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if filepath.Ext(name) != ".age" {
		t.Errorf("snapshot name = %q, want .age suffix", name)
	}
}
