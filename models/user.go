package models

import "gorm.io/gorm"

// User authenticates by email. It is never hard-deleted by the API.
type User struct {
	gorm.Model
	Email       string `gorm:"size:255;uniqueIndex;not null"`
	Password    string `gorm:"not null" json:"-"` // Don't expose password hash
	Name        string `gorm:"size:255"`
	IsActive    bool   `gorm:"not null;default:true"`
	IsStaff     bool   `gorm:"not null;default:false"`
	IsSuperuser bool   `gorm:"not null;default:false"`
}
