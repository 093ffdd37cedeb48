package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/api/middleware"
	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/store"
)

// ShoppingHandler handles shopping list endpoints.
type ShoppingHandler struct {
	store ShoppingStore
	log   zerolog.Logger
}

// NewShoppingHandler creates a new shopping list handler.
func NewShoppingHandler(store ShoppingStore, log zerolog.Logger) *ShoppingHandler {
	return &ShoppingHandler{store: store, log: log}
}

// ListLists handles GET /api/shopping-lists
func (h *ShoppingHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.store.ListLists(r.Context())
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to list shopping lists")
		return
	}
	if lists == nil {
		lists = []domain.ShoppingList{}
	}
	middleware.WriteJSON(w, http.StatusOK, lists)
}

// CreateList handles POST /api/shopping-lists. The new list becomes active.
func (h *ShoppingHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = store.DefaultListName
	}

	list, err := h.store.CreateList(r.Context(), name)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to create shopping list")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, list)
}

// GetList handles GET /api/shopping-lists/{id}
func (h *ShoppingHandler) GetList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.store.GetList(r.Context(), id)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to get shopping list")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, list)
}

// RenameList handles PATCH /api/shopping-lists/{id}
func (h *ShoppingHandler) RenameList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := h.store.RenameList(r.Context(), id, req.Name); err != nil {
		writeStoreError(w, h.log, err, "Failed to rename shopping list")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, okResponse)
}

// DeleteList handles DELETE /api/shopping-lists/{id}
func (h *ShoppingHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteList(r.Context(), id); err != nil {
		writeStoreError(w, h.log, err, "Failed to delete shopping list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActivateList handles POST /api/shopping-lists/{id}/activate
func (h *ShoppingHandler) ActivateList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.ActivateList(r.Context(), id); err != nil {
		writeStoreError(w, h.log, err, "Failed to activate shopping list")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, okResponse)
}

// AddItems handles POST /api/shopping-lists/{id}/items
func (h *ShoppingHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Items []string `json:"items"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	names := cleanNames(req.Items)
	if len(names) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Envie pelo menos um item")
		return
	}

	ctx := r.Context()
	added, err := h.store.AddItems(ctx, id, names)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to add items")
		return
	}
	list, err := h.store.GetList(ctx, id)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to get shopping list")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"added": len(added),
		"list":  list,
	})
}

// CheckItems handles PATCH /api/shopping-lists/{id}/items/check
func (h *ShoppingHandler) CheckItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ItemNames []string `json:"item_names"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	if _, err := h.store.GetList(ctx, id); err != nil {
		writeStoreError(w, h.log, err, "Failed to get shopping list")
		return
	}
	checked, err := h.store.CheckItemsByNames(ctx, id, cleanNames(req.ItemNames))
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to check items")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"checked": len(checked),
	})
}

// ToggleItem handles PATCH /api/shopping-lists/{id}/items/{itemID}/toggle
func (h *ShoppingHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	item, err := h.store.ToggleItem(r.Context(), listID, itemID)
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to toggle item")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"checked": item.Checked,
	})
}

// RenameItem handles PATCH /api/shopping-lists/{id}/items/{itemID}
func (h *ShoppingHandler) RenameItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.store.RenameItem(r.Context(), listID, itemID, req.Name); err != nil {
		writeStoreError(w, h.log, err, "Failed to rename item")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, okResponse)
}

// DeleteItem handles DELETE /api/shopping-lists/{id}/items/{itemID}
func (h *ShoppingHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.store.DeleteItem(r.Context(), listID, itemID); err != nil {
		writeStoreError(w, h.log, err, "Failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
