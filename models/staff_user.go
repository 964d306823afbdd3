package models

import "time"

// StaffUser is a dashboard operator. Senha holds a bcrypt hash.
type StaffUser struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Nome     string `gorm:"size:255" json:"nome"`
	Username string `gorm:"size:255;uniqueIndex" json:"username"`
	Senha    string `gorm:"size:255" json:"-"`
}

func (StaffUser) TableName() string { return "staff_users" }
