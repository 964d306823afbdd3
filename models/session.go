package models

import "time"

// Session is a server-side dashboard session, referenced by the cookie token.
// Expiry is fixed at creation time, not refreshed per request.
type Session struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	Token       string    `gorm:"size:64;uniqueIndex"`
	StaffUserID uint      `gorm:"index"`
	ExpiresAt   time.Time `gorm:"index"`

	StaffUser StaffUser `gorm:"foreignKey:StaffUserID;references:ID"`
}
