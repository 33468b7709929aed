package types

import "time"

// Company is an organization whose carbon footprint is being tracked.
// It owns users, suppliers, emission records and supply chain entries.
type Company struct {
	ID int `json:"id" db:"id"`

	// Name is the human-readable company name.
	Name string `json:"name" db:"name"`

	// Industry classifies the company's primary sector.
	Industry string `json:"industry,omitempty" db:"industry"`

	// Location is the company's region or headquarters location.
	Location string `json:"location,omitempty" db:"location"`

	// Size is a coarse size tier (e.g. "small", "medium", "enterprise").
	Size string `json:"size,omitempty" db:"size"`

	Description string `json:"description,omitempty" db:"description"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Supplier is a vendor in a company's supply network.
// Supplier names are unique system-wide.
type Supplier struct {
	ID int `json:"id" db:"id"`

	Name        string `json:"name" db:"name"`
	Location    string `json:"location,omitempty" db:"location"`
	ContactInfo string `json:"contact_info,omitempty" db:"contact_info"`
	Description string `json:"description,omitempty" db:"description"`

	// CompanyID optionally links the supplier to the company it serves.
	CompanyID *int `json:"company_id,omitempty" db:"company_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Material is a catalog entry carrying a per-unit emission factor.
// Material names are unique system-wide.
type Material struct {
	ID int `json:"id" db:"id"`

	Name        string `json:"name" db:"name"`
	Category    string `json:"category,omitempty" db:"category"`
	Description string `json:"description,omitempty" db:"description"`

	// EmissionFactor is the CO2-equivalent emitted per EmissionUnit of
	// this material.
	EmissionFactor float64 `json:"emission_factor" db:"emission_factor"`
	EmissionUnit   string  `json:"emission_unit,omitempty" db:"emission_unit"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
