package handlers

import (
	"net/http"

	"bakehouse/internal/bakery"
	applog "bakehouse/internal/log"
)

// Produce runs one production transaction. Insufficient stock answers 409
// with the ingredient, available and required quantities.
func (h *Handlers) Produce(w http.ResponseWriter, r *http.Request) {
	var req bakery.ProduceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := h.bakery.Production.Produce(r.Context(), req)
	if err != nil {
		applog.Debug(r.Context(), "production rejected", "recipeID", req.RecipeID, "batch", req.BatchCount, "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, receipt)
}
