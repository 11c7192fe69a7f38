package models

import "time"

// AdminAccountUsername is the username of the built-in admin account.
const AdminAccountUsername = "admin"

// Account represents a registered user. Admin accounts can manage the catalog
// and delete any review; regular accounts own their reviews and favorites.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	PasswordHash string    `json:"-"` // bcrypt hash, never serialized in API responses
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccountStorage is the on-disk representation. Unlike Account it carries the
// password hash.
type AccountStorage struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	PasswordHash string    `json:"passwordHash"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToStorage converts an Account for persistence.
func (a Account) ToStorage() AccountStorage {
	return AccountStorage{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		PasswordHash: a.PasswordHash,
		IsAdmin:      a.IsAdmin,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// ToAccount converts an AccountStorage back to an Account.
func (as AccountStorage) ToAccount() Account {
	return Account{
		ID:           as.ID,
		Username:     as.Username,
		Email:        as.Email,
		FirstName:    as.FirstName,
		LastName:     as.LastName,
		PasswordHash: as.PasswordHash,
		IsAdmin:      as.IsAdmin,
		CreatedAt:    as.CreatedAt,
		UpdatedAt:    as.UpdatedAt,
	}
}
