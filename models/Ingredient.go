package models

// Ingredient is a stocked raw material. Quantity is expressed in Unit.
type Ingredient struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"uniqueIndex;not null" json:"name"`
	Quantity    float64 `gorm:"not null;default:0" json:"quantity"`
	Unit        string  `json:"unit"`
	AlertLevel  float64 `gorm:"not null;default:0" json:"alert_level"`
	CostPerUnit float64 `gorm:"not null;default:0" json:"cost_per_unit"`
}

// LowStock reports whether the quantity on hand has reached the alert level.
func (i Ingredient) LowStock() bool {
	return i.Quantity <= i.AlertLevel
}
