package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/api/middleware"
	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/store"
)

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	store AccountStore
	log   zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(store AccountStore, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{store: store, log: log}
}

// List handles GET /api/accounts
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, accounts)
}

// Create handles POST /api/accounts
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string  `json:"name"`
		Balance float64 `json:"balance"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := h.store.CreateAccount(r.Context(), req.Name, req.Balance)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to create account")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, account)
}

// Update handles PATCH /api/accounts/{id}
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Name    *string  `json:"name"`
		Balance *float64 `json:"balance"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := h.store.UpdateAccount(r.Context(), id, store.AccountUpdate{Name: req.Name, Balance: req.Balance})
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to update account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, account)
}

// Delete handles DELETE /api/accounts/{id}
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteAccount(r.Context(), id); err != nil {
		writeStoreError(w, h.log, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
