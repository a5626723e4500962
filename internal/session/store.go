package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const tokenFile = "token"

// Store is the single owner of the bearer credential. Every other
// component reads the token through it at call time; nothing else writes
// or caches it.
type Store struct {
	dir    string
	logger *logrus.Logger
	mu     sync.RWMutex
	token  string
}

// Open restores a persisted session from dir, creating it on first use.
// A missing token file is the logged-out state, not an error.
func Open(dir string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	s := &Store{dir: dir, logger: logger}

	data, err := os.ReadFile(s.tokenPath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read session token: %w", err)
		}
		return s, nil
	}

	s.token = strings.TrimSpace(string(data))
	if s.token != "" {
		s.logger.Debug("Restored persisted session token")
		s.warnIfExpired(s.token)
	}
	return s, nil
}

// Login stores the token and persists it atomically so the session
// survives process restarts.
func (s *Store) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".token_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp token file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("chmod token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.tokenPath()); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("atomic rename: %w", err)
	}

	s.token = token
	s.logger.Info("Session established")
	return nil
}

// Logout clears the in-memory token and removes the persisted copy.
// Safe to call when already logged out.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := os.Remove(s.tokenPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session token: %w", err)
	}
	s.logger.Info("Session cleared")
	return nil
}

// Token returns the current credential. ok is false when logged out.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

func (s *Store) tokenPath() string {
	return filepath.Join(s.dir, tokenFile)
}

// warnIfExpired peeks at the token's registered claims without verifying
// the signature (the console holds no signing key) so an operator restoring
// a dead session gets a hint before the first 401.
func (s *Store) warnIfExpired(token string) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if exp.Before(time.Now()) {
		s.logger.Warnf("Stored session token expired at %s, login required", exp.Format(time.RFC3339))
	}
}
