package domain

import (
	"time"

	"gorm.io/gorm"
)

// Inquiry represents a contact form submission. Inquiries are write-once:
// the site only ever inserts them, never updates or deletes.
type Inquiry struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	Email           string    `gorm:"not null;index" json:"email"`
	Phone           *string   `json:"phone"`
	ServiceInterest string    `gorm:"not null" json:"service_interest"`
	Message         string    `gorm:"type:text;not null" json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for Inquiry
func (Inquiry) TableName() string {
	return "inquiries"
}

// BeforeCreate hook
func (i *Inquiry) BeforeCreate(tx *gorm.DB) error {
	i.CreatedAt = time.Now()
	return nil
}
