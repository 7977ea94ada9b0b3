// Package delivery imports supplier delivery notes and restocks the
// ingredients they list.
package delivery

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"bakehouse/internal/bakery"
	applog "bakehouse/internal/log"
	"bakehouse/models"
)

var (
	ErrUnsupportedFormat = errors.New("delivery: unsupported file type")
	ErrEmptyNote         = errors.New("delivery: no delivery lines found")
)

// Stock is the part of the inventory an import touches.
type Stock interface {
	FindByName(ctx context.Context, name string) (models.Ingredient, error)
	Restock(ctx context.Context, id uint, amount float64) (models.Ingredient, error)
}

// Line is one parsed entry of a delivery note.
type Line struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// Result summarises an import.
type Result struct {
	Restocked []models.Ingredient `json:"restocked"`
	Unknown   []string            `json:"unknown"`
	Rejected  []string            `json:"rejected"`
	Skipped   []string            `json:"skipped"`
}

// Importer applies delivery notes to stock.
type Importer struct {
	stock Stock
}

func NewImporter(stock Stock) *Importer {
	return &Importer{stock: stock}
}

// Import extracts the text of a .txt or .pdf note and restocks every line
// whose name matches an ingredient. Unknown names are reported back.
func (im *Importer) Import(ctx context.Context, filename string, data []byte) (Result, error) {
	text, err := ExtractText(filename, data)
	if err != nil {
		return Result{}, err
	}
	lines, skipped := ParseLines(text)
	if len(lines) == 0 {
		return Result{Skipped: skipped}, ErrEmptyNote
	}

	result := Result{Skipped: skipped}
	for _, line := range lines {
		ingredient, err := im.stock.FindByName(ctx, line.Name)
		if err != nil {
			if errors.Is(err, bakery.ErrNotFound) {
				result.Unknown = append(result.Unknown, line.Name)
				continue
			}
			return result, err
		}
		if line.Unit != "" && ingredient.Unit != "" && !strings.EqualFold(line.Unit, ingredient.Unit) {
			result.Rejected = append(result.Rejected, fmt.Sprintf("%s: unit %s does not match %s", line.Name, line.Unit, ingredient.Unit))
			continue
		}
		updated, err := im.stock.Restock(ctx, ingredient.ID, line.Quantity)
		if err != nil {
			if errors.Is(err, bakery.ErrInvalidAmount) {
				result.Rejected = append(result.Rejected, fmt.Sprintf("%s: invalid quantity", line.Name))
				continue
			}
			return result, err
		}
		result.Restocked = append(result.Restocked, updated)
	}

	applog.Info(ctx, "delivery note imported",
		"file", filename,
		"restocked", len(result.Restocked),
		"unknown", len(result.Unknown),
		"rejected", len(result.Rejected),
	)
	return result, nil
}

// ExtractText returns the plain text of a delivery note.
func ExtractText(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".csv":
		return string(data), nil
	case ".pdf":
		return extractTextFromPDF(data)
	default:
		return "", ErrUnsupportedFormat
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			builder.WriteString(strings.Join(parts, " "))
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

// ParseLines reads "<name> <quantity> [unit]" entries. Blank lines and
// lines starting with # are ignored; anything else that does not parse is
// returned in skipped.
func ParseLines(text string) (lines []Line, skipped []string) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		line, ok := parseLine(raw)
		if !ok {
			skipped = append(skipped, raw)
			continue
		}
		lines = append(lines, line)
	}
	return lines, skipped
}

func parseLine(raw string) (Line, bool) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == ';'
	})
	if len(fields) < 2 {
		return Line{}, false
	}

	qtyAt := -1
	for i := len(fields) - 1; i >= 1 && i >= len(fields)-2; i-- {
		if _, err := strconv.ParseFloat(fields[i], 64); err == nil {
			qtyAt = i
			break
		}
	}
	if qtyAt < 1 {
		return Line{}, false
	}

	qty, _ := strconv.ParseFloat(fields[qtyAt], 64)
	name := strings.TrimRight(strings.Join(fields[:qtyAt], " "), ":-")
	name = strings.TrimSpace(name)
	if name == "" {
		return Line{}, false
	}
	line := Line{Name: name, Quantity: qty}
	if qtyAt+1 < len(fields) {
		line.Unit = fields[qtyAt+1]
	}
	return line, true
}
