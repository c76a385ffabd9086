package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"giftnest/internal/auth"
	"giftnest/internal/backup"
	"giftnest/internal/config"
	"giftnest/internal/database"
	"giftnest/internal/database/migrations"
	"giftnest/internal/gift"
	"giftnest/internal/mail"
)

// App is the application layer between the CLI and the gift service.
// It constructs all dependencies from config and manages the DB and log
// file lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	service *gift.Service
	tokens  *auth.TokenManager
	logger  gift.Logger
	logFile *os.File
}

// New creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Login", "GiftAdd").
// The caller must call Close when done.
func New(cfg *config.Config, operation string) (*App, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	// Memory stores come with the schema pre-applied.
	if cfg.Database.Type == "sqlite" {
		if err := migrations.Check(store.DB()); err != nil {
			store.Close()
			return nil, fmt.Errorf("database schema out of date: %w", err)
		}
	}

	mailer, err := mail.NewMailerFromConfig(cfg.SMTP)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating mailer: %w", err)
	}

	secret, err := auth.LoadOrCreateSecret(cfg.Auth.TokenSecretPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("loading token secret: %w", err)
	}
	tokens := auth.NewTokenManager(secret, gift.RealClock{})

	opID := time.Now().UTC().Format("20060102T150405Z") + "-" + operation
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapter := &slogAdapter{l: logger}
	svc := gift.NewService(
		store,
		mailer,
		auth.NewArgon2Hasher(),
		adapter,
		gift.RealClock{},
		gift.UUIDGenerator{},
		cfg.FrontURL,
	)

	return &App{
		cfg:     cfg,
		store:   store,
		service: svc,
		tokens:  tokens,
		logger:  adapter,
		logFile: logFile,
	}, nil
}

// Service returns the wired gift service.
func (a *App) Service() *gift.Service { return a.service }

// Tokens returns the session token manager.
func (a *App) Tokens() *auth.TokenManager { return a.tokens }

// MigrateDatabase applies pending schema migrations to a file-backed
// database. It works on a direct store handle because New refuses to
// construct an App over an out-of-date schema.
func MigrateDatabase(cfg *config.Config) error {
	if cfg.Database.Type != "sqlite" {
		return fmt.Errorf("migrations only apply to sqlite databases")
	}
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()
	return migrations.Up(store.DB())
}

// BackupService builds the snapshot backup service from config. The
// backup vault is selected by name from the configured vaults.
func (a *App) BackupService(ctx context.Context) (*backup.Service, error) {
	cipher, err := a.BackupCipher()
	if err != nil {
		return nil, err
	}

	var vaultCfg *config.VaultConfig
	for i := range a.cfg.Vaults {
		if a.cfg.Vaults[i].Name == a.cfg.Backup.Vault {
			vaultCfg = &a.cfg.Vaults[i]
			break
		}
	}
	if vaultCfg == nil {
		return nil, fmt.Errorf("backup vault %q is not configured", a.cfg.Backup.Vault)
	}

	vault, err := backup.NewVaultFromConfig(ctx, *vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	return backup.NewService(a.store.DB(), cipher, vault, gift.RealClock{}, a.logger), nil
}

// BackupCipher returns the snapshot cipher configured for this install.
func (a *App) BackupCipher() (*backup.SnapshotCipher, error) {
	if a.cfg.Backup.PublicKeyPath == "" || a.cfg.Backup.PrivateKeyPath == "" {
		return nil, fmt.Errorf("backup key paths are not configured")
	}
	return backup.NewSnapshotCipher(a.cfg.Backup.PublicKeyPath, a.cfg.Backup.PrivateKeyPath), nil
}

// Close releases the database and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
