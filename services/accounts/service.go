package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"critiverse/models"
)

var (
	ErrStorageDirRequired  = errors.New("storage directory not provided")
	ErrUsernameRequired    = errors.New("username is required")
	ErrPasswordRequired    = errors.New("password is required")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrAccountNotFound     = errors.New("account not found")
	ErrUsernameExists      = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrCannotDeleteAdmin   = errors.New("cannot delete the admin account")
	ErrCannotDeleteLastAcc = errors.New("cannot delete the last account")
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Signup is the payload accepted when registering a new account.
type Signup struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Service manages persistence of user accounts in a JSON file.
type Service struct {
	mu       sync.RWMutex
	path     string
	accounts map[string]models.Account
}

// NewService creates an accounts service storing data inside the provided
// directory. On first run the built-in admin account is created with a
// generated password, printed once to the log.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "accounts.json"),
		accounts: make(map[string]models.Account),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	if err := svc.ensureAdminAccount(); err != nil {
		return nil, err
	}

	return svc, nil
}

// List returns all accounts, admin first, then by creation time.
func (s *Service) List() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].IsAdmin != accounts[j].IsAdmin {
			return accounts[i].IsAdmin
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return accounts
}

// Get returns the account with the given ID if present.
func (s *Service) Get(id string) (models.Account, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Account{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	return account, ok
}

// GetByUsername returns the account with the given username if present.
// Matching is case-insensitive.
func (s *Service) GetByUsername(username string) (models.Account, bool) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return models.Account{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if strings.ToLower(a.Username) == username {
			return a, true
		}
	}
	return models.Account{}, false
}

// Exists reports whether an account with the provided ID is registered.
func (s *Service) Exists(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// Create registers a new account. Validation runs before anything is stored.
func (s *Service) Create(signup Signup) (models.Account, error) {
	username := strings.TrimSpace(signup.Username)
	if username == "" {
		return models.Account{}, ErrUsernameRequired
	}

	pass := strings.TrimSpace(signup.Password)
	if pass == "" {
		return models.Account{}, ErrPasswordRequired
	}
	if len(pass) < minPasswordLength {
		return models.Account{}, ErrPasswordTooShort
	}

	email := strings.TrimSpace(signup.Email)
	if email != "" && !emailPattern.MatchString(email) {
		return models.Account{}, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lowerUsername := strings.ToLower(username)
	for _, a := range s.accounts {
		if strings.ToLower(a.Username) == lowerUsername {
			return models.Account{}, ErrUsernameExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := models.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(signup.FirstName),
		LastName:     strings.TrimSpace(signup.LastName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.accounts[account.ID] = account

	if err := s.saveLocked(); err != nil {
		delete(s.accounts, account.ID)
		return models.Account{}, err
	}

	return account, nil
}

// Authenticate verifies the username and password. Username lookup is
// case-insensitive; a missing user still costs one bcrypt comparison so
// lookups are not distinguishable by timing.
func (s *Service) Authenticate(username, pass string) (models.Account, error) {
	username = strings.TrimSpace(username)
	pass = strings.TrimSpace(pass)

	if username == "" || pass == "" {
		return models.Account{}, ErrInvalidCredentials
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lowerUsername := strings.ToLower(username)
	var account models.Account
	found := false
	for _, a := range s.accounts {
		if strings.ToLower(a.Username) == lowerUsername {
			account = a
			found = true
			break
		}
	}

	if !found {
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$dummy"), []byte(pass))
		return models.Account{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(pass)); err != nil {
		return models.Account{}, ErrInvalidCredentials
	}

	return account, nil
}

// UpdatePassword changes the password for an account.
func (s *Service) UpdatePassword(id, newPassword string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrAccountNotFound
	}

	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account.PasswordHash = string(hash)
	account.UpdatedAt = time.Now().UTC()
	s.accounts[id] = account

	return s.saveLocked()
}

// UpdateProfile changes the mutable profile fields of an account.
func (s *Service) UpdateProfile(id, email, firstName, lastName string) (models.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Account{}, ErrAccountNotFound
	}

	email = strings.TrimSpace(email)
	if email != "" && !emailPattern.MatchString(email) {
		return models.Account{}, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}

	account.Email = email
	account.FirstName = strings.TrimSpace(firstName)
	account.LastName = strings.TrimSpace(lastName)
	account.UpdatedAt = time.Now().UTC()
	s.accounts[id] = account

	if err := s.saveLocked(); err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// Delete removes an account by ID. The admin account cannot be deleted, nor
// can the last remaining account.
func (s *Service) Delete(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrAccountNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}

	if account.IsAdmin {
		return ErrCannotDeleteAdmin
	}

	if len(s.accounts) <= 1 {
		return ErrCannotDeleteLastAcc
	}

	delete(s.accounts, id)

	return s.saveLocked()
}

// ensureAdminAccount creates the built-in admin account on first run. The
// generated password is logged once; there is no default credential to
// forget about.
func (s *Service) ensureAdminAccount() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.IsAdmin {
			return nil
		}
	}

	generated, err := password.Generate(16, 4, 0, false, false)
	if err != nil {
		return fmt.Errorf("generate admin password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(generated), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := models.Account{
		ID:           "admin",
		Username:     models.AdminAccountUsername,
		PasswordHash: string(hash),
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.accounts[admin.ID] = admin

	if err := s.saveLocked(); err != nil {
		return err
	}

	log.Printf("[accounts] created admin account, password: %s", generated)
	return nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open accounts file: %w", err)
	}
	defer file.Close()

	var stored []models.AccountStorage
	if err := json.NewDecoder(file).Decode(&stored); err != nil {
		return fmt.Errorf("decode accounts: %w", err)
	}

	s.accounts = make(map[string]models.Account, len(stored))
	for _, entry := range stored {
		if strings.TrimSpace(entry.ID) == "" {
			continue
		}
		account := entry.ToAccount()
		if account.CreatedAt.IsZero() {
			account.CreatedAt = time.Now().UTC()
		}
		if account.UpdatedAt.IsZero() {
			account.UpdatedAt = account.CreatedAt
		}
		s.accounts[account.ID] = account
	}

	return nil
}

func (s *Service) saveLocked() error {
	stored := make([]models.AccountStorage, 0, len(s.accounts))
	for _, account := range s.accounts {
		stored = append(stored, account.ToStorage())
	}

	sort.Slice(stored, func(i, j int) bool {
		if stored[i].IsAdmin != stored[j].IsAdmin {
			return stored[i].IsAdmin
		}
		return stored[i].CreatedAt.Before(stored[j].CreatedAt)
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create accounts temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stored); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode accounts: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync accounts: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close accounts temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}

	return nil
}
