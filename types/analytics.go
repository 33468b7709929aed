package types

import "time"

// Timeframes accepted by the analytics trend query.
const (
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

// ValidTimeframe reports whether t names a known bucket granularity.
func ValidTimeframe(t string) bool {
	switch t {
	case TimeframeDay, TimeframeWeek, TimeframeMonth:
		return true
	}
	return false
}

// EmissionsAnalytics is the aggregated view of an owner's emissions over
// a date range. All sums default to zero when no rows match.
type EmissionsAnalytics struct {
	Statistics        EmissionsStatistics `json:"statistics"`
	ByCategory        []CategoryEmissions `json:"byCategory"`
	Trend             []TrendPoint        `json:"trend"`
	MonthlyComparison []MonthComparison   `json:"monthlyComparison"`
}

// EmissionsStatistics holds range-wide totals and the period-over-period
// comparison.
type EmissionsStatistics struct {
	// TotalEmissions is the sum of amount * co2_per_unit over the range.
	TotalEmissions float64 `json:"totalEmissions"`

	// PreviousPeriodEmissions covers the immediately preceding period of
	// identical length.
	PreviousPeriodEmissions float64 `json:"previousPeriodEmissions"`

	// ChangePercentage is (total-previous)/previous*100, or exactly 0
	// when the previous period had no emissions.
	ChangePercentage float64 `json:"changePercentage"`

	// AverageEmissions is the total divided by the inclusive day count.
	AverageEmissions float64 `json:"averageEmissions"`
}

// CategoryEmissions is the CO2-equivalent total for one category tag.
type CategoryEmissions struct {
	Category  string  `json:"category"`
	Emissions float64 `json:"emissions"`
}

// TrendPoint is the CO2-equivalent total for one time bucket, keyed by
// the bucket's start date.
type TrendPoint struct {
	Bucket    time.Time `json:"date"`
	Emissions float64   `json:"emissions"`
}

// MonthComparison pairs one calendar month's total with the immediately
// preceding month's total.
type MonthComparison struct {
	// Month is the calendar month label, formatted YYYY-MM.
	Month    string  `json:"month"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}
