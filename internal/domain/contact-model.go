package domain

import "time"

// Contact always belongs to exactly one user; every query against this table
// must carry the owner id predicate.
type Contact struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OwnerID   uint       `gorm:"index;not null" json:"owner_id"`
	FirstName string     `gorm:"not null" json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Birthday  *time.Time `json:"birthday,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
