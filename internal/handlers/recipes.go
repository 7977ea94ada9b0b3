package handlers

import (
	"net/http"

	"bakehouse/internal/bakery"
)

func (h *Handlers) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.bakery.Recipes.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recipes)
}

func (h *Handlers) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recipe, err := h.bakery.Recipes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, recipe)
}

// CreateRecipe stores a recipe with its per-unit ingredient requirements.
func (h *Handlers) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var in bakery.NewRecipe
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	recipe, err := h.bakery.Recipes.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, recipe)
}
