package bakery

import (
	"fmt"
	"strings"
	"time"
)

const receiptRule = "==================================="

// ReceiptView carries everything printed on a receipt.
type ReceiptView struct {
	RecipeName   string
	Quantity     int
	CustomerName *string
	UnitPrice    float64
	Total        float64
	CreatedAt    time.Time
	Usage        []UsageLine
}

// RenderReceiptText produces the plain-text snapshot stored with a receipt.
func RenderReceiptText(v ReceiptView) string {
	customer := "Walk-in"
	if v.CustomerName != nil && strings.TrimSpace(*v.CustomerName) != "" {
		customer = strings.TrimSpace(*v.CustomerName)
	}

	var b strings.Builder
	b.WriteString("BAKERY RECEIPT\n")
	b.WriteString(receiptRule + "\n")
	fmt.Fprintf(&b, "Recipe:   %s\n", v.RecipeName)
	fmt.Fprintf(&b, "Quantity: %d\n", v.Quantity)
	fmt.Fprintf(&b, "Customer: %s\n", customer)
	fmt.Fprintf(&b, "Date:     %s\n", v.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(v.Usage) > 0 {
		b.WriteString("\nIngredients Used:\n")
		for _, line := range v.Usage {
			fmt.Fprintf(&b, "- %s: %s\n", line.Ingredient, formatQuantity(line.Used, line.Unit))
		}
	}

	b.WriteString("\n" + strings.Repeat("-", len(receiptRule)) + "\n")
	fmt.Fprintf(&b, "Unit Price: %s\n", FormatMoney(v.UnitPrice))
	fmt.Fprintf(&b, "TOTAL:      %s\n", FormatMoney(v.Total))
	b.WriteString("\nThank you!\n")
	return b.String()
}
