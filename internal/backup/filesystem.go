package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSystemVault stores snapshots as files under a root directory.
type FileSystemVault struct {
	name string
	root string
}

func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating vault root: %w", err)
	}
	return &FileSystemVault{name: name, root: root}, nil
}

func (v *FileSystemVault) Name() string { return v.name }

func (v *FileSystemVault) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("invalid snapshot name: %q", name)
	}
	return filepath.Join(v.root, name), nil
}

func (v *FileSystemVault) PutSnapshot(_ context.Context, name string, r io.Reader) error {
	path, err := v.path(name)
	if err != nil {
		return err
	}

	// Write to a temp file first so a partial upload never looks like a
	// valid snapshot.
	tmp, err := os.CreateTemp(v.root, ".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("finalizing snapshot: %w", err)
	}
	return nil
}

func (v *FileSystemVault) GetSnapshot(_ context.Context, name string, w io.Writer) error {
	path, err := v.path(name)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return nil
}

func (v *FileSystemVault) ListSnapshots(context.Context) ([]string, error) {
	entries, err := os.ReadDir(v.root)
	if err != nil {
		return nil, fmt.Errorf("listing vault root: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

var _ Vault = (*FileSystemVault)(nil)
