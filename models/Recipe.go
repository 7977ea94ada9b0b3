package models

type Recipe struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	Name         string             `gorm:"uniqueIndex;not null" json:"name"`
	SellingPrice float64            `gorm:"not null;default:0" json:"selling_price"`
	Ingredients  []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
}
