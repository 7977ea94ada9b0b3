package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bakehouse/internal/bakery"
	"bakehouse/models"
)

func TestParseLines(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"# Miller & Sons delivery 2026-10-15",
		"",
		"Flour 5000 g",
		"Brown Sugar: 1200 g",
		"Eggs\t24",
		"Butter, 2.5, kg",
		"Invoice total",
		"Vanilla extract ml",
	}, "\n")

	lines, skipped := ParseLines(text)
	want := []Line{
		{Name: "Flour", Quantity: 5000, Unit: "g"},
		{Name: "Brown Sugar", Quantity: 1200, Unit: "g"},
		{Name: "Eggs", Quantity: 24},
		{Name: "Butter", Quantity: 2.5, Unit: "kg"},
	}
	if len(lines) != len(want) {
		t.Fatalf("parsed %d lines, want %d: %+v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %+v, want %+v", i, lines[i], want[i])
		}
	}
	if len(skipped) != 2 || skipped[0] != "Invoice total" {
		t.Fatalf("skipped = %q", skipped)
	}
}

func TestExtractTextRejectsUnknownTypes(t *testing.T) {
	t.Parallel()
	if _, err := ExtractText("note.docx", []byte("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := ExtractText("note.pdf", []byte("not a pdf")); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

type fakeStock struct {
	items     map[string]*models.Ingredient
	restocked map[uint]float64
}

func newFakeStock(items ...models.Ingredient) *fakeStock {
	s := &fakeStock{items: map[string]*models.Ingredient{}, restocked: map[uint]float64{}}
	for i := range items {
		item := items[i]
		s.items[strings.ToLower(item.Name)] = &item
	}
	return s
}

func (s *fakeStock) FindByName(_ context.Context, name string) (models.Ingredient, error) {
	item, ok := s.items[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.Ingredient{}, bakery.ErrNotFound
	}
	return *item, nil
}

func (s *fakeStock) Restock(_ context.Context, id uint, amount float64) (models.Ingredient, error) {
	if amount <= 0 {
		return models.Ingredient{}, bakery.ErrInvalidAmount
	}
	for _, item := range s.items {
		if item.ID == id {
			item.Quantity += amount
			s.restocked[id] += amount
			return *item, nil
		}
	}
	return models.Ingredient{}, bakery.ErrNotFound
}

func TestImportRestocksKnownIngredients(t *testing.T) {
	t.Parallel()
	stock := newFakeStock(
		models.Ingredient{ID: 1, Name: "Flour", Quantity: 100, Unit: "g"},
		models.Ingredient{ID: 2, Name: "Butter", Quantity: 1, Unit: "kg"},
		models.Ingredient{ID: 3, Name: "Milk", Quantity: 1, Unit: "l"},
	)
	im := NewImporter(stock)

	note := "flour 900 g\nSaffron 2 g\nBUTTER 3\nMilk 2 kg\nMilk 0 l\n"
	result, err := im.Import(context.Background(), "note.txt", []byte(note))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if stock.restocked[1] != 900 || stock.restocked[2] != 3 {
		t.Fatalf("restocked = %v", stock.restocked)
	}
	if _, ok := stock.restocked[3]; ok {
		t.Fatalf("milk restocked despite unit mismatch and zero quantity")
	}
	if len(result.Restocked) != 2 || result.Restocked[0].Quantity != 1000 {
		t.Fatalf("result restocked = %+v", result.Restocked)
	}
	if len(result.Unknown) != 1 || result.Unknown[0] != "Saffron" {
		t.Fatalf("unknown = %q", result.Unknown)
	}
	if len(result.Rejected) != 2 {
		t.Fatalf("rejected = %q", result.Rejected)
	}
}

func TestImportEmptyNote(t *testing.T) {
	t.Parallel()
	im := NewImporter(newFakeStock())
	if _, err := im.Import(context.Background(), "note.txt", []byte("# nothing\n\n")); !errors.Is(err, ErrEmptyNote) {
		t.Fatalf("error = %v, want ErrEmptyNote", err)
	}
}
