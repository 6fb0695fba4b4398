package dto

import (
	"time"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/usecase"
)

// CommandResponse is the rendered reply to a command.
type CommandResponse struct {
	Reply    string `json:"reply"`
	Outcome  string `json:"outcome"`
	Replayed bool   `json:"replayed,omitempty"`
}

// BalanceResponse represents an account balance.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

// InventoryLineResponse represents one owned item.
type InventoryLineResponse struct {
	Item     string `json:"item"`
	Quantity int64  `json:"quantity"`
}

// InventoryResponse lists the items an account owns.
type InventoryResponse struct {
	AccountID string                  `json:"account_id"`
	Items     []InventoryLineResponse `json:"items"`
}

// InventoryFromDomain converts inventory lines to a response.
func InventoryFromDomain(accountID string, lines []domain.InventoryLine) *InventoryResponse {
	items := make([]InventoryLineResponse, len(lines))
	for i, l := range lines {
		items[i] = InventoryLineResponse{Item: l.ItemName, Quantity: l.Quantity}
	}
	return &InventoryResponse{AccountID: accountID, Items: items}
}

// ItemResponse represents a catalog item.
type ItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemsFromDomain converts catalog items to responses.
func ItemsFromDomain(items []*domain.CatalogItem) []*ItemResponse {
	result := make([]*ItemResponse, len(items))
	for i, item := range items {
		result[i] = &ItemResponse{
			ID:        item.ID,
			Name:      item.Name,
			Price:     item.Price,
			CreatedAt: item.CreatedAt,
		}
	}
	return result
}

// EntryResponse represents a journal entry in API responses.
type EntryResponse struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	Kind            string    `json:"kind"`
	Reference       string    `json:"reference,omitempty"`
	Amount          int64     `json:"amount"`
	PreviousBalance int64     `json:"previous_balance"`
	CurrentBalance  int64     `json:"current_balance"`
	CreatedAt       time.Time `json:"created_at"`
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = &EntryResponse{
			ID:              e.ID,
			AccountID:       e.AccountID,
			Kind:            string(e.Kind),
			Reference:       e.Reference,
			Amount:          e.Amount,
			PreviousBalance: e.PreviousBalance,
			CurrentBalance:  e.CurrentBalance,
			CreatedAt:       e.CreatedAt,
		}
	}
	return result
}

// DiscrepancyResponse describes an account whose balance differs from its journal.
type DiscrepancyResponse struct {
	AccountID         string `json:"account_id"`
	RecordedBalance   int64  `json:"recorded_balance"`
	CalculatedBalance int64  `json:"calculated_balance"`
	Difference        int64  `json:"difference"`
}

// ReconciliationResponse represents a reconciliation report.
type ReconciliationResponse struct {
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	LedgerConsistent   bool                   `json:"ledger_consistent"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a report to a response.
func ReconciliationFromUseCase(report *usecase.ReconciliationReport) *ReconciliationResponse {
	discrepancies := make([]*DiscrepancyResponse, len(report.Discrepancies))
	for i, d := range report.Discrepancies {
		discrepancies[i] = &DiscrepancyResponse{
			AccountID:         d.AccountID,
			RecordedBalance:   d.RecordedBalance,
			CalculatedBalance: d.CalculatedBalance,
			Difference:        d.Difference,
		}
	}

	return &ReconciliationResponse{
		TotalAccounts:      report.TotalAccounts,
		ReconciledAccounts: report.ReconciledAccounts,
		LedgerConsistent:   report.LedgerConsistent,
		Discrepancies:      discrepancies,
		CheckedAt:          report.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
