package pages

import (
	"fmt"
	"strconv"

	"github.com/a-h/templ"

	"bakehouse/internal/bakery"
	"bakehouse/models"
)

// DashboardData is everything the landing screen shows.
type DashboardData struct {
	Username string
	Admin    bool
	LowStock []bakery.StockLevel
	Today    *bakery.Report
	Recent   []models.Receipt
}

func quantity(v float64, unit string) string {
	text := strconv.FormatFloat(v, 'f', -1, 64)
	if unit == "" {
		return text
	}
	return text + " " + unit
}

func receiptHref(r models.Receipt) templ.SafeURL {
	return templ.SafeURL(fmt.Sprintf("/app/receipts/%d/print", r.ID))
}

func receiptSummary(r models.Receipt) string {
	return fmt.Sprintf("#%d %s x%d, %s", r.ID, r.RecipeName, r.Quantity, bakery.FormatMoney(r.Total))
}
