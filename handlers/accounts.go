package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"critiverse/models"
	"critiverse/services/accounts"
	"critiverse/services/sessions"
)

// AccountsHandler handles account management endpoints (admin only).
type AccountsHandler struct {
	accounts *accounts.Service
	sessions *sessions.Service
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(accountsSvc *accounts.Service, sessionsSvc *sessions.Service) *AccountsHandler {
	return &AccountsHandler{
		accounts: accountsSvc,
		sessions: sessionsSvc,
	}
}

// CreateAccountRequest represents the create account request body.
type CreateAccountRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func accountResponse(acc models.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID,
		Username:  acc.Username,
		Email:     acc.Email,
		FirstName: acc.FirstName,
		LastName:  acc.LastName,
		IsAdmin:   acc.IsAdmin,
	}
}

// List returns all accounts (admin only).
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accountsList := h.accounts.List()

	result := make([]AccountResponse, 0, len(accountsList))
	for _, acc := range accountsList {
		result = append(result, accountResponse(acc))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Create creates a new account (admin only).
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	account, err := h.accounts.Create(accounts.Signup{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case accounts.ErrUsernameExists:
			status = http.StatusConflict
		case accounts.ErrUsernameRequired, accounts.ErrPasswordRequired,
			accounts.ErrPasswordTooShort, accounts.ErrInvalidEmail:
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(accountResponse(account))
}

// Get returns a single account by ID (admin only).
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accountID := vars["accountID"]

	account, ok := h.accounts.Get(accountID)
	if !ok {
		http.Error(w, `{"error": "account not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse(account))
}

// Delete removes an account (admin only).
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accountID := vars["accountID"]

	// First, revoke all sessions for this account
	h.sessions.RevokeAllForAccount(accountID)

	if err := h.accounts.Delete(accountID); err != nil {
		status := http.StatusInternalServerError
		if err == accounts.ErrAccountNotFound {
			status = http.StatusNotFound
		} else if err == accounts.ErrCannotDeleteAdmin || err == accounts.ErrCannotDeleteLastAcc {
			status = http.StatusForbidden
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword resets an account's password (admin only).
func (h *AccountsHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	accountID := vars["accountID"]

	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := h.accounts.UpdatePassword(accountID, req.NewPassword); err != nil {
		status := http.StatusInternalServerError
		if err == accounts.ErrAccountNotFound {
			status = http.StatusNotFound
		} else if err == accounts.ErrPasswordRequired || err == accounts.ErrPasswordTooShort {
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	// Revoke all sessions for this account (force re-login)
	h.sessions.RevokeAllForAccount(accountID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "password reset"})
}

// Options handles CORS preflight requests.
func (h *AccountsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
