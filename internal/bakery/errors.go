package bakery

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrDuplicateName  = errors.New("bakery: name already exists")
	ErrInvalidName    = errors.New("bakery: name must not be empty")
	ErrInvalidAmount  = errors.New("bakery: amount must be greater than zero")
	ErrRecipeNotFound = errors.New("bakery: recipe not found")
	ErrEmptyRecipe    = errors.New("bakery: recipe has no ingredients")
	ErrNotFound       = errors.New("bakery: record not found")
	ErrStorage        = errors.New("bakery: storage failure")
	ErrUnknownWindow  = errors.New("bakery: unknown report window")
)

// InsufficientStockError reports the first ingredient that cannot cover a
// production request. Nothing has been deducted when it is returned.
type InsufficientStockError struct {
	Ingredient string
	Unit       string
	Available  float64
	Required   float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("bakery: not enough %s: available %s, required %s",
		e.Ingredient, formatQuantity(e.Available, e.Unit), formatQuantity(e.Required, e.Unit))
}

type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("bakery: storage failure: %s: %v", e.op, e.err)
}

func (e *storageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *storageError) Unwrap() error {
	return e.err
}

func storage(op string, err error) error {
	return &storageError{op: op, err: err}
}

func formatQuantity(value float64, unit string) string {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if unit == "" {
		return text
	}
	return text + " " + unit
}
