// Package backup ships encrypted database snapshots to off-site vaults.
package backup

import (
	"context"
	"io"
)

// Vault is a storage backend for encrypted snapshots. Snapshot names are
// unique per backup run; storing the same name twice overwrites.
type Vault interface {
	// Name identifies the vault in config and logs.
	Name() string

	// PutSnapshot stores an encrypted snapshot under the given name.
	PutSnapshot(ctx context.Context, name string, r io.Reader) error

	// GetSnapshot retrieves a snapshot and writes it to w.
	GetSnapshot(ctx context.Context, name string, w io.Writer) error

	// ListSnapshots returns all stored snapshot names, oldest first.
	ListSnapshots(ctx context.Context) ([]string, error)
}
