package accounts

import (
	"errors"
	"testing"

	"critiverse/models"
)

// setupTestService creates a new accounts service backed by a temp directory.
func setupTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestNewService_InitializesAdminAccount(t *testing.T) {
	svc := setupTestService(t)

	admin, ok := svc.GetByUsername(models.AdminAccountUsername)
	if !ok {
		t.Fatal("expected admin account to exist")
	}

	if admin.ID != "admin" {
		t.Errorf("expected admin ID 'admin', got %q", admin.ID)
	}
	if !admin.IsAdmin {
		t.Error("expected admin account IsAdmin to be true")
	}
	if admin.PasswordHash == "" {
		t.Error("expected generated password hash")
	}
}

func TestNewService_EmptyStorageDir(t *testing.T) {
	if _, err := NewService(""); !errors.Is(err, ErrStorageDirRequired) {
		t.Errorf("expected ErrStorageDirRequired, got %v", err)
	}
	if _, err := NewService("   "); !errors.Is(err, ErrStorageDirRequired) {
		t.Errorf("expected ErrStorageDirRequired for whitespace, got %v", err)
	}
}

func TestNewService_LoadsExistingAccounts(t *testing.T) {
	tmpDir := t.TempDir()

	svc1, err := NewService(tmpDir)
	if err != nil {
		t.Fatalf("failed to create first service: %v", err)
	}
	if _, err := svc1.Create(Signup{Username: "testuser", Password: "password123"}); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	svc2, err := NewService(tmpDir)
	if err != nil {
		t.Fatalf("failed to create second service: %v", err)
	}
	if _, ok := svc2.GetByUsername("testuser"); !ok {
		t.Error("expected testuser to be loaded from disk")
	}
}

func TestCreate_Success(t *testing.T) {
	svc := setupTestService(t)

	account, err := svc.Create(Signup{
		Username:  "newuser",
		Password:  "password123",
		Email:     "new@example.com",
		FirstName: "New",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if account.ID == "" {
		t.Error("expected non-empty ID")
	}
	if account.Username != "newuser" {
		t.Errorf("expected username 'newuser', got %q", account.Username)
	}
	if account.Email != "new@example.com" {
		t.Errorf("unexpected email %q", account.Email)
	}
	if account.IsAdmin {
		t.Error("expected IsAdmin to be false for regular signup")
	}
	if account.CreatedAt.IsZero() {
		t.Error("expected non-zero CreatedAt")
	}
	if account.PasswordHash == "password123" {
		t.Error("password must not be stored in plain text")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := setupTestService(t)

	cases := []struct {
		name    string
		signup  Signup
		wantErr error
	}{
		{"empty username", Signup{Username: " ", Password: "password123"}, ErrUsernameRequired},
		{"empty password", Signup{Username: "u", Password: ""}, ErrPasswordRequired},
		{"short password", Signup{Username: "u", Password: "abc"}, ErrPasswordTooShort},
		{"bad email", Signup{Username: "u", Password: "password123", Email: "not-an-email"}, ErrInvalidEmail},
	}
	for _, tc := range cases {
		if _, err := svc.Create(tc.signup); !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Create(Signup{Username: "Taken", Password: "password123"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(Signup{Username: "taken", Password: "password456"}); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists for case-insensitive duplicate, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := setupTestService(t)

	created, err := svc.Create(Signup{Username: "authuser", Password: "secret123"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	account, err := svc.Authenticate("AuthUser", "secret123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if account.ID != created.ID {
		t.Errorf("expected account %s, got %s", created.ID, account.ID)
	}

	if _, err := svc.Authenticate("authuser", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate("nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := svc.Authenticate("", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for empty input, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := setupTestService(t)

	account, err := svc.Create(Signup{Username: "pwuser", Password: "original123"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.UpdatePassword(account.ID, "changed456"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}
	if _, err := svc.Authenticate("pwuser", "original123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password must stop working")
	}
	if _, err := svc.Authenticate("pwuser", "changed456"); err != nil {
		t.Errorf("new password must work: %v", err)
	}

	if err := svc.UpdatePassword(account.ID, "abc"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := svc.UpdatePassword("missing", "changed456"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := setupTestService(t)

	account, err := svc.Create(Signup{Username: "profuser", Password: "password123"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.UpdateProfile(account.ID, "prof@example.com", "Pro", "File")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.Email != "prof@example.com" || updated.FirstName != "Pro" {
		t.Errorf("unexpected profile: %+v", updated)
	}

	if _, err := svc.UpdateProfile(account.ID, "broken@", "", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := setupTestService(t)

	account, err := svc.Create(Signup{Username: "deluser", Password: "password123"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	admin, _ := svc.GetByUsername(models.AdminAccountUsername)
	if err := svc.Delete(admin.ID); !errors.Is(err, ErrCannotDeleteAdmin) {
		t.Errorf("expected ErrCannotDeleteAdmin, got %v", err)
	}

	if err := svc.Delete(account.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if svc.Exists(account.ID) {
		t.Error("account must be gone after delete")
	}
	if err := svc.Delete(account.ID); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestList_AdminFirst(t *testing.T) {
	svc := setupTestService(t)

	if _, err := svc.Create(Signup{Username: "zeta", Password: "password123"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	accounts := svc.List()
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if !accounts[0].IsAdmin {
		t.Error("expected admin account to be listed first")
	}
}
