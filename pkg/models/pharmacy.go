package models

import "time"

// Pharmacy represents a dispensing location that inventory rows attach to.
// Rows are looked up by exact name (case-sensitive) or by the owner key of
// the uploading account; names are never fuzzy-matched.
type Pharmacy struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	OwnerKey  *string   `json:"owner_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Placeholder contact details for pharmacies created on first sighting.
const (
	PlaceholderAddress = "Unknown Address"
	PlaceholderPhone   = "000-000-0000"
)
