package handlers

import (
	"net/http"

	applog "bakehouse/internal/log"
	"bakehouse/internal/views/pages"
)

const defaultReceiptLimit = 50

// ListReceipts returns the newest receipts first. ?limit=0 returns all.
func (h *Handlers) ListReceipts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultReceiptLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	receipts, err := h.bakery.Ledger.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, receipts)
}

func (h *Handlers) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	receipt, err := h.bakery.Ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, receipt)
}

// PrintReceipt renders the stored receipt text as a printable page.
func (h *Handlers) PrintReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid receipt id", http.StatusBadRequest)
		return
	}
	receipt, err := h.bakery.Ledger.Get(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			applog.Error(r.Context(), "failed to load receipt for printing", "error", err, "receiptID", id)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ReceiptPrint(receipt).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render receipt", "error", err, "receiptID", id)
	}
}
