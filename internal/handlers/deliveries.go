package handlers

import (
	"fmt"
	"io"
	"net/http"
)

const maxDeliveryUpload = 10 << 20

// ImportDelivery restocks from an uploaded delivery note in the "note" field.
func (h *Handlers) ImportDelivery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDeliveryUpload)
	if err := r.ParseMultipartForm(maxDeliveryUpload); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	file, header, err := r.FormFile("note")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing note file", errBadRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	result, err := h.deliveries.Import(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}
