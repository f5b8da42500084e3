package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event sources. System events are owned by the refresh cycle and replaced
// wholesale; user events live until deactivated or expired.
const (
	SourceSystem = "system"
	SourceUser   = "user"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID                 int64     `bun:"id,pk,autoincrement" json:"id"`
	Title              string    `bun:"title,notnull" json:"title"`
	Description        string    `bun:"description" json:"description"`
	Location           string    `bun:"location" json:"location"`
	City               string    `bun:"city,notnull" json:"city"`
	College            string    `bun:"college" json:"college"`
	Category           string    `bun:"category,notnull" json:"category"`
	Date               time.Time `bun:"date,notnull" json:"date"`
	Expiry             time.Time `bun:"expiry,nullzero" json:"expiry,omitempty"`
	RegistrationLink   string    `bun:"registration_link" json:"registrationLink"`
	ImageURL           string    `bun:"image_url" json:"imageUrl,omitempty"`
	Rating             int       `bun:"rating" json:"rating"`
	NotInterestedUsers string    `bun:"not_interested_users" json:"-"`
	IsActive           bool      `bun:"is_active,notnull" json:"isActive"`
	Source             string    `bun:"source,notnull" json:"source"`
}
