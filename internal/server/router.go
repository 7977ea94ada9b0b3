package server

import (
	"context"
	"net/http"

	"bakehouse/internal/handlers"
	applog "bakehouse/internal/log"
)

func newRouter(h *handlers.Handlers, loginLimit func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	authed := func(fn http.HandlerFunc) http.Handler { return h.RequireAuthentication(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return h.RequireAdmin(fn) }

	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("/login", loginLimit(http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("GET /{$}", h.Home)

	mux.Handle("GET /app", authed(h.Dashboard))
	mux.Handle("GET /app/receipts/{id}/print", authed(h.PrintReceipt))

	mux.Handle("GET /app/api/ingredients", authed(h.ListIngredients))
	mux.Handle("POST /app/api/ingredients", authed(h.AddIngredient))
	mux.Handle("GET /app/api/ingredients/low-stock", authed(h.ListLowStock))
	mux.Handle("GET /app/api/ingredients/{id}", authed(h.GetIngredient))
	mux.Handle("POST /app/api/ingredients/{id}/restock", authed(h.RestockIngredient))
	mux.Handle("PUT /app/api/ingredients/{id}/cost", authed(h.UpdateIngredientCost))

	mux.Handle("GET /app/api/recipes", authed(h.ListRecipes))
	mux.Handle("POST /app/api/recipes", authed(h.CreateRecipe))
	mux.Handle("GET /app/api/recipes/{id}", authed(h.GetRecipe))

	mux.Handle("POST /app/api/production", authed(h.Produce))

	mux.Handle("GET /app/api/receipts", authed(h.ListReceipts))
	mux.Handle("GET /app/api/receipts/{id}", authed(h.GetReceipt))

	mux.Handle("GET /app/api/reports", authed(h.Report))
	mux.Handle("GET /app/api/reports/receipts", authed(h.ReportReceipts))

	mux.Handle("POST /app/api/deliveries", authed(h.ImportDelivery))

	mux.Handle("GET /app/api/backups", admin(h.ListBackups))
	mux.Handle("POST /app/api/backups", admin(h.CreateBackup))
	mux.Handle("POST /app/api/backups/{name}/restore", admin(h.RestoreBackup))

	applog.Debug(context.Background(), "http routes registered")
	return mux
}
