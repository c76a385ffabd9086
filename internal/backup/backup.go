package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"giftnest/internal/gift"
)

// Service snapshots the live database, encrypts the snapshot and ships it
// to a vault.
type Service struct {
	db     *sql.DB
	cipher *SnapshotCipher
	vault  Vault
	clock  gift.Clock
	logger gift.Logger
}

func NewService(db *sql.DB, cipher *SnapshotCipher, vault Vault, clock gift.Clock, logger gift.Logger) *Service {
	return &Service{
		db:     db,
		cipher: cipher,
		vault:  vault,
		clock:  clock,
		logger: logger,
	}
}

// Run takes one backup and returns the stored snapshot name.
func (s *Service) Run(ctx context.Context) (string, error) {
	tmpDir, err := os.MkdirTemp("", "giftnest-backup-")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// VACUUM INTO produces a consistent copy without blocking writers
	// for the whole duration.
	snapshotPath := filepath.Join(tmpDir, "snapshot.db")
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", snapshotPath); err != nil {
		return "", fmt.Errorf("snapshotting database: %w", err)
	}

	f, err := os.Open(snapshotPath)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var sealed bytes.Buffer
	if err := s.cipher.Encrypt(f, &sealed); err != nil {
		return "", err
	}

	name := s.clock.Now().UTC().Format("20060102T150405Z") + ".db.age"
	if err := s.vault.PutSnapshot(ctx, name, &sealed); err != nil {
		return "", err
	}

	s.logger.Info("backup stored", "vault", s.vault.Name(), "snapshot", name)
	return name, nil
}

// Restore fetches a snapshot, decrypts it with the passphrase and writes
// the database file to destPath. It refuses to overwrite an existing file.
func (s *Service) Restore(ctx context.Context, name, passphrase, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("destination %s already exists", destPath)
	}

	var sealed bytes.Buffer
	if err := s.vault.GetSnapshot(ctx, name, &sealed); err != nil {
		return err
	}

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer f.Close()

	if err := s.cipher.Decrypt(passphrase, &sealed, f); err != nil {
		os.Remove(destPath)
		return err
	}

	s.logger.Info("backup restored", "vault", s.vault.Name(), "snapshot", name, "dest", destPath)
	return nil
}

// List returns the snapshot names available in the vault.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.vault.ListSnapshots(ctx)
}
