package handler

import (
	"context"
	"net/http"

	"github.com/iho/coinledger/internal/adapter/http/dto"
	"github.com/iho/coinledger/internal/domain"
)

// CatalogService defines the behavior needed by CatalogHandler.
type CatalogService interface {
	ListCatalog(ctx context.Context) ([]*domain.CatalogItem, error)
}

// CatalogHandler serves the shop catalog.
type CatalogHandler struct {
	catalogUC CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogUC CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogUC: catalogUC}
}

// List lists every catalog item in insertion order.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogUC.ListCatalog(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list items", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ItemsFromDomain(items))
}
