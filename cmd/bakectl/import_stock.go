package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"bakehouse/internal/bakery"
	"bakehouse/internal/config"
)

// stockRow is one line of a stock sheet. Missing optional columns are zero.
type stockRow struct {
	line int
	in   bakery.NewIngredient
}

func runImportStock(ctx context.Context, cfg config.Config, path string, stdout io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open stock sheet: %w", err)
	}
	defer file.Close()

	rows, err := readStockSheet(file)
	if err != nil {
		return fmt.Errorf("read stock sheet: %w", err)
	}

	database, closeFn, err := open(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var added, restocked, unchanged int
	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inventory := bakery.New(tx, bakery.Options{Location: cfg.Location}).Inventory
		for _, row := range rows {
			changed, created, err := applyStockRow(ctx, inventory, row.in)
			if err != nil {
				return fmt.Errorf("line %d (%s): %w", row.line, row.in.Name, err)
			}
			switch {
			case created:
				added++
			case changed:
				restocked++
			default:
				unchanged++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Imported %s: %d added, %d restocked, %d unchanged\n", filepath.Base(path), added, restocked, unchanged)
	return nil
}

// applyStockRow adds an unknown ingredient, or restocks a known one and
// updates its cost when the sheet names a different positive cost.
func applyStockRow(ctx context.Context, inventory *bakery.Inventory, in bakery.NewIngredient) (changed, created bool, err error) {
	existing, err := inventory.FindByName(ctx, in.Name)
	if errors.Is(err, bakery.ErrNotFound) {
		if _, err := inventory.Add(ctx, in); err != nil {
			return false, false, err
		}
		return true, true, nil
	}
	if err != nil {
		return false, false, err
	}

	if in.Quantity > 0 {
		if _, err := inventory.Restock(ctx, existing.ID, in.Quantity); err != nil {
			return false, false, err
		}
		changed = true
	}
	if in.CostPerUnit > 0 && in.CostPerUnit != existing.CostPerUnit {
		if _, err := inventory.UpdateCost(ctx, existing.ID, in.CostPerUnit); err != nil {
			return false, false, err
		}
		changed = true
	}
	return changed, false, nil
}

// readStockSheet parses a CSV with a header row naming at least "name" and
// "quantity"; "unit", "alert_level" and "cost_per_unit" are optional.
func readStockSheet(r io.Reader) ([]stockRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("stock sheet is empty")
		}
		return nil, err
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "quantity"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}

	var rows []stockRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		number := func(name string) (float64, error) {
			raw := field(name)
			if raw == "" {
				return 0, nil
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return 0, fmt.Errorf("line %d: invalid %s %q", line, name, raw)
			}
			return v, nil
		}

		name := field("name")
		if name == "" {
			continue
		}
		row := stockRow{line: line, in: bakery.NewIngredient{Name: name, Unit: field("unit")}}
		if row.in.Quantity, err = number("quantity"); err != nil {
			return nil, err
		}
		if row.in.AlertLevel, err = number("alert_level"); err != nil {
			return nil, err
		}
		if row.in.CostPerUnit, err = number("cost_per_unit"); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
