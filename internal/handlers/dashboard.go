package handlers

import (
	"net/http"

	"bakehouse/internal/bakery"
	applog "bakehouse/internal/log"
	"bakehouse/internal/views/pages"
	"bakehouse/models"
)

const dashboardRecentReceipts = 10

// Dashboard renders low stock, today's sales and the latest receipts.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := h.currentUser(r)

	lowStock, err := h.bakery.Inventory.ListLowStock(ctx)
	if err != nil {
		applog.Error(ctx, "failed to load low stock for dashboard", "error", err)
		http.Error(w, "unable to load dashboard", http.StatusInternalServerError)
		return
	}
	today, err := h.bakery.Reports.Report(ctx, bakery.WindowToday)
	if err != nil {
		applog.Error(ctx, "failed to load today's report for dashboard", "error", err)
		http.Error(w, "unable to load dashboard", http.StatusInternalServerError)
		return
	}
	recent, err := h.bakery.Ledger.List(ctx, dashboardRecentReceipts)
	if err != nil {
		applog.Error(ctx, "failed to load receipts for dashboard", "error", err)
		http.Error(w, "unable to load dashboard", http.StatusInternalServerError)
		return
	}

	data := pages.DashboardData{
		Username: user.Username,
		Admin:    user.Role == models.RoleAdmin,
		LowStock: lowStock,
		Today:    today,
		Recent:   recent,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Dashboard(data).Render(ctx, w); err != nil {
		applog.Error(ctx, "failed to render dashboard", "error", err)
	}
}
