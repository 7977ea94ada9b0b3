package handlers

import (
	"net/http"
	"strconv"

	"bakehouse/internal/bakery"
)

type restockRequest struct {
	Amount float64 `json:"amount"`
}

type costRequest struct {
	CostPerUnit float64 `json:"cost_per_unit"`
}

// ListIngredients returns every ingredient with its low-stock flag.
// ?low_stock=true narrows the list to ingredients at or below their alert level.
func (h *Handlers) ListIngredients(w http.ResponseWriter, r *http.Request) {
	lowOnly, _ := strconv.ParseBool(r.URL.Query().Get("low_stock"))
	var (
		items []bakery.StockLevel
		err   error
	)
	if lowOnly {
		items, err = h.bakery.Inventory.ListLowStock(r.Context())
	} else {
		items, err = h.bakery.Inventory.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, items)
}

func (h *Handlers) ListLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.bakery.Inventory.ListLowStock(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, items)
}

func (h *Handlers) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ingredient, err := h.bakery.Inventory.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ingredient)
}

func (h *Handlers) AddIngredient(w http.ResponseWriter, r *http.Request) {
	var in bakery.NewIngredient
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	ingredient, err := h.bakery.Inventory.Add(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, ingredient)
}

func (h *Handlers) RestockIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in restockRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	ingredient, err := h.bakery.Inventory.Restock(r.Context(), id, in.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ingredient)
}

func (h *Handlers) UpdateIngredientCost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in costRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	ingredient, err := h.bakery.Inventory.UpdateCost(r.Context(), id, in.CostPerUnit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ingredient)
}
