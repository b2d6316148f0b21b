package domain

import "time"

// Vehicle is a fleet entry. Price is kept in cents to avoid floating point
// drift in storage.
type Vehicle struct {
	ID           string
	Brand        string
	Model        string
	Year         int
	Color        string
	LicensePlate string // unique
	PriceCents   int64
	Available    bool
	CreatedBy    string // client ID of the admin who created it, empty if unknown
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
