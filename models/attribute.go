package models

import "time"

// Attribute holds the columns shared by Tag and Ingredient: a free-text name
// owned by one user. A name is unique per owner; the composite index is
// named after each embedding table (idx_tags_owner_name, ...).
type Attribute struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"size:255;not null;uniqueIndex:,composite:owner_name,priority:2"`
	UserID    uint   `gorm:"not null;uniqueIndex:,composite:owner_name,priority:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Base gives generic code access to the shared columns of *Tag and *Ingredient.
func (a *Attribute) Base() *Attribute {
	return a
}

// Labeled is implemented by *Tag and *Ingredient.
type Labeled interface {
	Base() *Attribute
}

type Tag struct {
	Attribute
}

type Ingredient struct {
	Attribute
}
