package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"critiverse/models"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrStorageDirRequired = errors.New("storage directory not provided")
)

const (
	// DefaultSessionDuration is the lifetime of a regular session.
	DefaultSessionDuration = 30 * 24 * time.Hour

	// RememberMeDuration is the lifetime of a "remember me" session.
	RememberMeDuration = 365 * 24 * time.Hour

	// tokenLength is the number of random bytes in a session token.
	tokenLength = 32
)

// Service manages bearer tokens for authenticated accounts, persisted to a
// JSON file so sessions survive restarts.
type Service struct {
	mu              sync.RWMutex
	path            string
	sessions        map[string]models.Session
	sessionDuration time.Duration
}

// NewService creates a sessions service. An empty storageDir keeps sessions
// in memory only.
func NewService(storageDir string, sessionDuration time.Duration) (*Service, error) {
	if sessionDuration <= 0 {
		sessionDuration = DefaultSessionDuration
	}

	svc := &Service{
		sessions:        make(map[string]models.Session),
		sessionDuration: sessionDuration,
	}

	if strings.TrimSpace(storageDir) != "" {
		if err := os.MkdirAll(storageDir, 0o755); err != nil {
			return nil, fmt.Errorf("create sessions dir: %w", err)
		}
		svc.path = filepath.Join(storageDir, "sessions.json")

		if err := svc.load(); err != nil {
			return nil, err
		}
	}

	go svc.cleanupLoop()

	return svc, nil
}

// Create generates a new session for the given account. rememberMe extends
// the lifetime to RememberMeDuration.
func (s *Service) Create(accountID string, isAdmin, rememberMe bool, userAgent, ipAddress string) (models.Session, error) {
	duration := s.sessionDuration
	if rememberMe {
		duration = RememberMeDuration
	}

	token, err := generateToken()
	if err != nil {
		return models.Session{}, err
	}

	now := time.Now().UTC()
	session := models.Session{
		Token:     token,
		AccountID: accountID,
		IsAdmin:   isAdmin,
		ExpiresAt: now.Add(duration),
		CreatedAt: now,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	s.mu.Lock()
	s.sessions[token] = session
	if err := s.saveLocked(); err != nil {
		delete(s.sessions, token)
		s.mu.Unlock()
		return models.Session{}, err
	}
	s.mu.Unlock()

	return session, nil
}

// Validate checks a token and returns the associated session. Expired
// sessions are removed on sight.
func (s *Service) Validate(token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrInvalidToken
	}

	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return models.Session{}, ErrSessionNotFound
	}

	if session.IsExpired() {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return models.Session{}, ErrSessionExpired
	}

	return session, nil
}

// Revoke invalidates a session by its token.
func (s *Service) Revoke(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return ErrSessionNotFound
	}

	delete(s.sessions, token)
	return s.saveLocked()
}

// RevokeAllForAccount invalidates every session of an account, returning how
// many were dropped. Used when an account is deleted or its password changes.
func (s *Service) RevokeAllForAccount(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for token, session := range s.sessions {
		if session.AccountID == accountID {
			delete(s.sessions, token)
			count++
		}
	}
	if count > 0 {
		_ = s.saveLocked()
	}
	return count
}

// Refresh extends a valid session's expiration by the configured duration.
func (s *Service) Refresh(token string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}

	if session.IsExpired() {
		delete(s.sessions, token)
		_ = s.saveLocked()
		return models.Session{}, ErrSessionExpired
	}

	session.ExpiresAt = time.Now().UTC().Add(s.sessionDuration)
	s.sessions[token] = session
	_ = s.saveLocked()

	return session, nil
}

// Cleanup removes all expired sessions.
func (s *Service) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	now := time.Now()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			count++
		}
	}
	if count > 0 {
		_ = s.saveLocked()
	}
	return count
}

// Count returns the number of tracked sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		s.Cleanup()
	}
}

func generateToken() (string, error) {
	bytes := make([]byte, tokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func (s *Service) load() error {
	if s.path == "" {
		return nil
	}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open sessions file: %w", err)
	}
	defer file.Close()

	var stored []models.Session
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode sessions: %w", err)
	}

	now := time.Now()
	s.sessions = make(map[string]models.Session, len(stored))
	for _, session := range stored {
		if strings.TrimSpace(session.Token) == "" {
			continue
		}
		if now.After(session.ExpiresAt) {
			continue
		}
		s.sessions[session.Token] = session
	}

	return nil
}

// saveLocked writes sessions to disk. Must be called with mu held.
func (s *Service) saveLocked() error {
	if s.path == "" {
		return nil
	}

	sessions := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create sessions temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sessions); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode sessions: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync sessions: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close sessions temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace sessions file: %w", err)
	}

	return nil
}
