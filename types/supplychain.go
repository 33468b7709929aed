package types

import "time"

// Supply chain variants. Two incompatible shapes of this entity exist in
// production data and both are supported: "linked" rows reference a
// company, supplier and material from the catalog; "composed" rows are
// owned directly by a user and embed their own material movements.
const (
	SupplyChainLinked   = "linked"
	SupplyChainComposed = "composed"
)

// SupplyChain is a single entry in a company's supply network.
//
// Exactly one variant's field group is populated, discriminated by
// Variant. Linked entries carry CompanyID/SupplierID/MaterialID/Tier/
// Quantity/Unit; composed entries carry UserID/SupplierName/Date/Materials.
type SupplyChain struct {
	ID int `json:"id" db:"id"`

	// Variant is SupplyChainLinked or SupplyChainComposed.
	Variant string `json:"variant" db:"variant"`

	// Linked variant fields.
	CompanyID  *int     `json:"company_id,omitempty" db:"company_id"`
	SupplierID *int     `json:"supplier_id,omitempty" db:"supplier_id"`
	MaterialID *int     `json:"material_id,omitempty" db:"material_id"`
	Tier       *int     `json:"tier,omitempty" db:"tier"`
	Quantity   *float64 `json:"quantity,omitempty" db:"quantity"`
	Unit       string   `json:"unit,omitempty" db:"unit"`

	// Composed variant fields.
	UserID       *int               `json:"user_id,omitempty" db:"user_id"`
	SupplierName string             `json:"supplier_name,omitempty" db:"supplier_name"`
	Date         *time.Time         `json:"date,omitempty" db:"date"`
	Materials    []MaterialMovement `json:"materials,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MaterialMovement is one material shipment embedded in a composed supply
// chain entry. Movements live and die with their parent: deleting the
// entry removes them.
type MaterialMovement struct {
	ID            int `json:"id" db:"id"`
	SupplyChainID int `json:"supply_chain_id" db:"supply_chain_id"`

	MaterialType string `json:"material_type" db:"material_type"`

	Quantity float64 `json:"quantity" db:"quantity"`

	// TransportMode is the mode used to move the material (truck, rail, ...).
	TransportMode     string     `json:"transport_mode,omitempty" db:"transport_mode"`
	TransportDistance float64    `json:"transport_distance,omitempty" db:"transport_distance"`
	TransportDate     *time.Time `json:"transport_date,omitempty" db:"transport_date"`

	Notes string `json:"notes,omitempty" db:"notes"`
}
