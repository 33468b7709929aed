package types

import "time"

// CategoryUnspecified is the sentinel bucket for emission records that
// carry no category tag.
const CategoryUnspecified = "unspecified"

// EmissionRecord is one measured emission activity.
//
// Two field revisions of this entity exist upstream
// (amount/type/unit/co2_per_unit/date and emission_value/category/
// emission_unit/reporting_period). This struct is the canonical union:
// the amount/category/co2_per_unit/occurred_at set is authoritative and
// the legacy names are accepted as aliases at the API boundary.
type EmissionRecord struct {
	ID int `json:"id" db:"id"`

	// UserID is the owning user; non-admin callers can only see their own
	// records.
	UserID int `json:"user_id" db:"user_id"`

	CompanyID  *int `json:"company_id,omitempty" db:"company_id"`
	SupplierID *int `json:"supplier_id,omitempty" db:"supplier_id"`

	// Scope is the emissions-accounting scope tag (scope1/scope2/scope3),
	// carried opaquely.
	Scope string `json:"scope,omitempty" db:"scope"`

	// Category tags the activity (electricity, transport, waste, ...).
	Category string `json:"category,omitempty" db:"category"`

	// Amount is the measured quantity of the activity, in Unit.
	Amount float64 `json:"amount" db:"amount"`
	Unit   string  `json:"unit,omitempty" db:"unit"`

	// CO2PerUnit is the emission factor applied to Amount.
	CO2PerUnit float64 `json:"co2_per_unit" db:"co2_per_unit"`

	// OccurredAt is the calendar date the activity took place.
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`

	DataQuality string `json:"data_quality,omitempty" db:"data_quality"`
	Description string `json:"description,omitempty" db:"description"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CO2e returns the CO2-equivalent contributed by this record. It is
// derived on read so edits to either operand can never drift apart from
// a stored product.
func (e EmissionRecord) CO2e() float64 {
	return e.Amount * e.CO2PerUnit
}
