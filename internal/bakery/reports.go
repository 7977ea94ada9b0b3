package bakery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

// Window selects the receipts a report covers.
type Window string

const (
	WindowToday   Window = "today"
	WindowAllTime Window = "all"
)

// ParseWindow accepts "today" and "all"/"all-time", case-insensitively.
// An empty value means today.
func ParseWindow(value string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "today":
		return WindowToday, nil
	case "all", "all-time", "alltime", "all_time":
		return WindowAllTime, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWindow, value)
	}
}

// ReportRow aggregates one recipe's sales. Costs use today's ingredient
// prices, not the prices at sale time.
type ReportRow struct {
	RecipeName      string  `json:"recipe_name"`
	Quantity        int     `json:"quantity"`
	TotalSales      float64 `json:"total_sales"`
	CostPerUnit     float64 `json:"cost_per_unit"`
	EstimatedCost   float64 `json:"estimated_cost"`
	EstimatedProfit float64 `json:"estimated_profit"`
	// CostUnavailable marks rows whose recipe no longer exists; their cost is zero.
	CostUnavailable bool `json:"cost_unavailable"`
}

// Report is the per-recipe profit summary for a window.
type Report struct {
	Window        Window      `json:"window"`
	From          *time.Time  `json:"from,omitempty"`
	To            *time.Time  `json:"to,omitempty"`
	GeneratedAt   time.Time   `json:"generated_at"`
	Rows          []ReportRow `json:"rows"`
	TotalQuantity int         `json:"total_quantity"`
	TotalSales    float64     `json:"total_sales"`
	TotalCost     float64     `json:"total_cost"`
	TotalProfit   float64     `json:"total_profit"`
}

// Reports aggregates the receipt ledger.
type Reports struct {
	env *env
}

type salesGroup struct {
	RecipeName string
	Quantity   int64
	Total      float64
}

// Report summarises sales per recipe within the window.
func (r *Reports) Report(ctx context.Context, window Window) (*Report, error) {
	from, to, err := r.bounds(window)
	if err != nil {
		return nil, err
	}

	key := r.cacheKey(window, from)
	if cached, ok, err := r.env.cache.Get(ctx, key); err != nil {
		applog.Warn(ctx, "report cache read failed", "key", key, "error", err)
	} else if ok {
		applog.Debug(ctx, "report served from cache", "key", key)
		return cached, nil
	}
	generation := r.env.cacheGeneration()

	var groups []salesGroup
	query := r.env.conn(ctx).Model(&models.Receipt{}).
		Select("recipe_name, SUM(quantity) AS quantity, SUM(total) AS total")
	query = withinWindow(query, from, to)
	if err := query.Group("recipe_name").Order("recipe_name asc").Scan(&groups).Error; err != nil {
		return nil, storage("aggregate receipts", err)
	}

	report := &Report{
		Window:      window,
		From:        from,
		To:          to,
		GeneratedAt: r.env.now().UTC(),
		Rows:        make([]ReportRow, 0, len(groups)),
	}

	totalSales, totalCost := decimal.Zero, decimal.Zero
	for _, group := range groups {
		sales := money(group.Total).Round(2)
		row := ReportRow{
			RecipeName: group.RecipeName,
			Quantity:   int(group.Quantity),
			TotalSales: cents(sales),
		}

		unitCost, err := r.unitCost(ctx, group.RecipeName)
		switch {
		case errors.Is(err, ErrRecipeNotFound):
			row.CostUnavailable = true
			applog.Warn(ctx, "recipe missing for report row, estimating zero cost", "recipe", group.RecipeName)
		case err != nil:
			return nil, err
		}

		cost := unitCost.Mul(decimal.NewFromInt(group.Quantity))
		row.CostPerUnit = cents(unitCost)
		row.EstimatedCost = cents(cost)
		row.EstimatedProfit = cents(sales.Sub(cost))

		report.Rows = append(report.Rows, row)
		report.TotalQuantity += row.Quantity
		totalSales = totalSales.Add(sales)
		totalCost = totalCost.Add(cost)
	}
	report.TotalSales = cents(totalSales)
	report.TotalCost = cents(totalCost)
	report.TotalProfit = cents(totalSales.Sub(totalCost))

	r.env.storeReport(ctx, key, report, generation)
	return report, nil
}

// Receipts lists the receipts behind one report row, newest first. The stored
// receipt text is returned as written.
func (r *Reports) Receipts(ctx context.Context, window Window, recipeName string) ([]models.Receipt, error) {
	from, to, err := r.bounds(window)
	if err != nil {
		return nil, err
	}

	query := r.env.conn(ctx).Where("recipe_name = ?", recipeName)
	query = withinWindow(query, from, to)

	var receipts []models.Receipt
	if err := query.Order("created_at desc, id desc").Find(&receipts).Error; err != nil {
		return nil, storage("list report receipts", err)
	}
	return receipts, nil
}

// unitCost prices one unit of the named recipe at current ingredient costs.
func (r *Reports) unitCost(ctx context.Context, recipeName string) (decimal.Decimal, error) {
	recipe, err := findRecipeByName(r.env.conn(ctx), recipeName)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, row := range recipe.Ingredients {
		if row.Ingredient == nil {
			continue
		}
		total = total.Add(decimal.NewFromFloat(row.Quantity).Mul(money(row.Ingredient.CostPerUnit)))
	}
	return total, nil
}

func (r *Reports) bounds(window Window) (*time.Time, *time.Time, error) {
	switch window {
	case WindowAllTime:
		return nil, nil, nil
	case WindowToday:
		now := r.env.now().In(r.env.location)
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.env.location)
		end := start.AddDate(0, 0, 1)
		return &start, &end, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownWindow, window)
	}
}

func (r *Reports) cacheKey(window Window, from *time.Time) string {
	if from == nil {
		return "report:" + string(window)
	}
	return "report:" + string(window) + ":" + from.Format("2006-01-02")
}

// withinWindow compares in UTC because receipts are stored in UTC.
func withinWindow(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("created_at >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("created_at < ?", to.UTC())
	}
	return query
}
