package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryVault keeps snapshots in memory. Useful for tests. Safe for
// concurrent use.
type MemoryVault struct {
	name      string
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string][]byte),
	}
}

func (v *MemoryVault) Name() string { return v.name }

func (v *MemoryVault) PutSnapshot(_ context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshots[name] = data
	return nil
}

func (v *MemoryVault) GetSnapshot(_ context.Context, name string, w io.Writer) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	data, ok := v.snapshots[name]
	if !ok {
		return fmt.Errorf("snapshot not found: %s", name)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (v *MemoryVault) ListSnapshots(context.Context) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.snapshots))
	for name := range v.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

var _ Vault = (*MemoryVault)(nil)
