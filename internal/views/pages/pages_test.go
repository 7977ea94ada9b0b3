package pages

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"bakehouse/internal/bakery"
	"bakehouse/models"
)

func TestLoginEscapesInput(t *testing.T) {
	var buf bytes.Buffer
	if err := Login("Bad <password>", `al"ice`).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render login: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Bad &lt;password&gt;") {
		t.Fatalf("expected escaped message: %s", out)
	}
	if !strings.Contains(out, `value="al&#34;ice"`) {
		t.Fatalf("expected escaped username: %s", out)
	}
}

func TestReceiptPrintShowsStoredTextVerbatim(t *testing.T) {
	receipt := models.Receipt{ID: 42, ReceiptText: "BAKERY RECEIPT\nRecipe:   Pie & Mash\nTOTAL:      9.00"}
	var buf bytes.Buffer
	if err := ReceiptPrint(receipt).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render receipt: %v", err)
	}
	out := buf.String()
	for _, token := range []string{"<title>Receipt #42</title>", "BAKERY RECEIPT\nRecipe:   Pie &amp; Mash\nTOTAL:      9.00", "window.print()"} {
		if !strings.Contains(out, token) {
			t.Fatalf("expected output to contain %q: %s", token, out)
		}
	}
}

func TestDashboardRendersSections(t *testing.T) {
	data := DashboardData{
		Username: "admin",
		Admin:    true,
		LowStock: []bakery.StockLevel{{Ingredient: models.Ingredient{Name: "Eggs", Quantity: 4, Unit: "pcs", AlertLevel: 12}, LowStock: true}},
		Today: &bakery.Report{
			Rows:          []bakery.ReportRow{{RecipeName: "Croissant", Quantity: 4, TotalSales: 8.8, EstimatedCost: 1.68, EstimatedProfit: 7.12}},
			TotalQuantity: 4,
			TotalSales:    8.8,
			TotalCost:     1.68,
			TotalProfit:   7.12,
		},
		Recent: []models.Receipt{{ID: 7, RecipeName: "Croissant", Quantity: 4, Total: 8.8}},
	}
	var buf bytes.Buffer
	if err := Dashboard(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render dashboard: %v", err)
	}
	out := buf.String()
	for _, token := range []string{"Eggs", "4 pcs", "12 pcs", "Croissant", "8.80", "7.12", `/app/receipts/7/print`, `/app/api/backups`, "admin"} {
		if !strings.Contains(out, token) {
			t.Fatalf("expected output to contain %q: %s", token, out)
		}
	}
}

func TestDashboardHidesAdminLinksForStaff(t *testing.T) {
	var buf bytes.Buffer
	if err := Dashboard(DashboardData{Username: "sam"}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render dashboard: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "/app/api/backups") {
		t.Fatalf("staff dashboard should not link backups: %s", out)
	}
	if !strings.Contains(out, "No sales yet.") || !strings.Contains(out, "All ingredients are above") {
		t.Fatalf("expected empty-state text: %s", out)
	}
}

func TestPagesStopOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Dashboard(DashboardData{Username: "sam"}).Render(ctx, &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("render error = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}
