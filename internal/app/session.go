package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"giftnest/internal/auth"
)

// ErrNotLoggedIn is returned when a command needs a session and no valid
// token is stored.
var ErrNotLoggedIn = errors.New("not logged in, run login first")

// SaveSession writes a signed session token to the configured session path.
// The token carries the derived key, so the file is created user-only.
func (a *App) SaveSession(token string) error {
	if err := os.MkdirAll(filepath.Dir(a.cfg.SessionPath), 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := os.WriteFile(a.cfg.SessionPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// CurrentSession loads and verifies the stored session token. Expired or
// tampered tokens are removed and reported as ErrNotLoggedIn.
func (a *App) CurrentSession() (*auth.Claims, error) {
	raw, err := os.ReadFile(a.cfg.SessionPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	claims, err := a.tokens.Parse(string(raw))
	if err != nil {
		os.Remove(a.cfg.SessionPath)
		return nil, ErrNotLoggedIn
	}
	return claims, nil
}

// ClearSession removes the stored session token.
func (a *App) ClearSession() error {
	if err := os.Remove(a.cfg.SessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}
