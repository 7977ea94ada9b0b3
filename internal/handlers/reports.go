package handlers

import (
	"net/http"
	"strings"

	"bakehouse/internal/bakery"
)

// Report returns per-recipe sales, cost and profit for ?window=today|all.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	window, err := bakery.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.bakery.Reports.Report(r.Context(), window)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// ReportReceipts lists the receipts behind one report row.
func (h *Handlers) ReportReceipts(w http.ResponseWriter, r *http.Request) {
	window, err := bakery.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	recipe := strings.TrimSpace(r.URL.Query().Get("recipe"))
	if recipe == "" {
		writeError(w, r, bakery.ErrInvalidName)
		return
	}
	receipts, err := h.bakery.Reports.Receipts(r.Context(), window, recipe)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, receipts)
}
