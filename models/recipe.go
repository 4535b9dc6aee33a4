package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is owned by exactly one user and removed together with it.
type Recipe struct {
	ID          uint            `gorm:"primarykey"`
	UserID      uint            `gorm:"not null;index"`
	User        *User           `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Title       string          `gorm:"size:255;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	TimeMinutes int             `gorm:"not null"`
	Description string          `gorm:"type:text"`
	Link        string          `gorm:"size:255"`
	Image       string          `gorm:"size:255"` // Path relative to the media root, empty when unset
	Tags        []Tag           `gorm:"many2many:recipe_tags;"`
	Ingredients []Ingredient    `gorm:"many2many:recipe_ingredients;"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
