package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatRef(v float64) *float64 { return &v }

func TestEmissionCreateRequestCanonicalFields(t *testing.T) {
	req := EmissionCreateRequest{
		Category:   "electricity",
		Amount:     floatRef(10),
		Unit:       "kWh",
		CO2PerUnit: floatRef(0.5),
		OccurredAt: "2024-01-01",
	}

	record, err := req.toRecord()
	require.NoError(t, err)

	assert.Equal(t, "electricity", record.Category)
	assert.InDelta(t, 10, record.Amount, 1e-9)
	assert.InDelta(t, 0.5, record.CO2PerUnit, 1e-9)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), record.OccurredAt)
	assert.InDelta(t, 5.0, record.CO2e(), 1e-9)
}

func TestEmissionCreateRequestLegacyAliases(t *testing.T) {
	req := EmissionCreateRequest{
		Type:            "natural_gas",
		EmissionValue:   floatRef(73.5),
		EmissionUnit:    "m3",
		ReportingPeriod: "2024-02-15",
	}

	record, err := req.toRecord()
	require.NoError(t, err)

	assert.Equal(t, "natural_gas", record.Category)
	assert.Equal(t, "m3", record.Unit)
	// A legacy emission_value is already CO2e, so the factor defaults
	// to one and the derived total equals the given value.
	assert.InDelta(t, 73.5, record.CO2e(), 1e-9)
	assert.Equal(t, time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), record.OccurredAt)
}

func TestEmissionCreateRequestCanonicalNamesWin(t *testing.T) {
	req := EmissionCreateRequest{
		Category:      "electricity",
		Type:          "legacy-type",
		Amount:        floatRef(4),
		CO2PerUnit:    floatRef(0.2),
		EmissionValue: floatRef(99),
		OccurredAt:    "2024-01-02",
		Date:          "1999-01-01",
	}

	record, err := req.toRecord()
	require.NoError(t, err)

	assert.Equal(t, "electricity", record.Category)
	assert.InDelta(t, 4, record.Amount, 1e-9)
	assert.InDelta(t, 0.2, record.CO2PerUnit, 1e-9)
	assert.Equal(t, 2024, record.OccurredAt.Year())
}

func TestEmissionCreateRequestMissingFields(t *testing.T) {
	_, err := EmissionCreateRequest{OccurredAt: "2024-01-01"}.toRecord()
	assert.Error(t, err)

	_, err = EmissionCreateRequest{Amount: floatRef(1), OccurredAt: "2024-01-01"}.toRecord()
	assert.Error(t, err, "amount without co2_per_unit must be rejected")

	_, err = EmissionCreateRequest{Amount: floatRef(1), CO2PerUnit: floatRef(1)}.toRecord()
	assert.Error(t, err, "missing date must be rejected")
}

func TestParseFlexibleDate(t *testing.T) {
	parsed, err := parseFlexibleDate("2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.June, parsed.Month())

	parsed, err = parseFlexibleDate("2024-06-30T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 12, parsed.Hour())

	_, err = parseFlexibleDate("30/06/2024")
	assert.Error(t, err)
}
