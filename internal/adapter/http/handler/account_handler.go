package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/coinledger/internal/adapter/http/dto"
	"github.com/iho/coinledger/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	GetBalance(ctx context.Context, externalID string) (int64, error)
	ListInventory(ctx context.Context, externalID string) ([]domain.InventoryLine, error)
}

// AccountHandler serves read views of an account.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Balance returns the balance of an account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	balance, err := h.accountUC.GetBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, Balance: balance})
}

// Inventory lists the items an account owns.
func (h *AccountHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lines, err := h.accountUC.ListInventory(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to list inventory", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InventoryFromDomain(id, lines))
}
