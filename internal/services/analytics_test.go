package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/carbontrace/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAggregator computes aggregates over an in-memory record list so
// the engine's arithmetic can be exercised without a database.
type fakeAggregator struct {
	records []fakeRecord
}

type fakeRecord struct {
	date     time.Time
	category string
	co2e     float64
}

func (f *fakeAggregator) SumCO2e(ctx context.Context, ownerID *int, start, end time.Time) (float64, error) {
	total := 0.0
	for _, record := range f.records {
		if inRange(record.date, start, end) {
			total += record.co2e
		}
	}
	return total, nil
}

func (f *fakeAggregator) SumCO2eByCategory(ctx context.Context, ownerID *int, start, end time.Time) ([]types.CategoryEmissions, error) {
	totals := map[string]float64{}
	for _, record := range f.records {
		if !inRange(record.date, start, end) {
			continue
		}
		category := record.category
		if category == "" {
			category = types.CategoryUnspecified
		}
		totals[category] += record.co2e
	}

	var result []types.CategoryEmissions
	for category, emissions := range totals {
		result = append(result, types.CategoryEmissions{Category: category, Emissions: emissions})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}

func (f *fakeAggregator) SumCO2eByBucket(ctx context.Context, ownerID *int, start, end time.Time, timeframe string) ([]types.TrendPoint, error) {
	totals := map[time.Time]float64{}
	for _, record := range f.records {
		if !inRange(record.date, start, end) {
			continue
		}
		totals[BucketStart(record.date, timeframe)] += record.co2e
	}

	var result []types.TrendPoint
	for bucket, emissions := range totals {
		result = append(result, types.TrendPoint{Bucket: bucket, Emissions: emissions})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Bucket.Before(result[j].Bucket) })
	return result, nil
}

func inRange(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestOverviewSingleDayRecords(t *testing.T) {
	agg := &fakeAggregator{records: []fakeRecord{
		{date: day(2024, time.January, 1), category: "electricity", co2e: 10 * 0.5},
		{date: day(2024, time.January, 1), category: "transport", co2e: 4 * 0.2},
	}}
	svc := NewAnalyticsService(agg)

	analytics, err := svc.Overview(context.Background(), nil, day(2024, time.January, 1), day(2024, time.January, 31), types.TimeframeDay)
	require.NoError(t, err)

	assert.InDelta(t, 5.8, analytics.Statistics.TotalEmissions, 1e-9)
	assert.Zero(t, analytics.Statistics.PreviousPeriodEmissions)
	// No previous-period emissions means the change is reported as zero,
	// not infinity.
	assert.Zero(t, analytics.Statistics.ChangePercentage)
	assert.InDelta(t, 5.8/31, analytics.Statistics.AverageEmissions, 1e-9)

	require.Len(t, analytics.ByCategory, 2)
	assert.Equal(t, "electricity", analytics.ByCategory[0].Category)
	assert.InDelta(t, 5.0, analytics.ByCategory[0].Emissions, 1e-9)
	assert.Equal(t, "transport", analytics.ByCategory[1].Category)
	assert.InDelta(t, 0.8, analytics.ByCategory[1].Emissions, 1e-9)

	require.Len(t, analytics.Trend, 1)
	assert.Equal(t, day(2024, time.January, 1), analytics.Trend[0].Bucket)
	assert.InDelta(t, 5.8, analytics.Trend[0].Emissions, 1e-9)
}

func TestOverviewEmptyRange(t *testing.T) {
	svc := NewAnalyticsService(&fakeAggregator{})

	analytics, err := svc.Overview(context.Background(), nil, day(2024, time.February, 1), day(2024, time.February, 29), types.TimeframeMonth)
	require.NoError(t, err)

	assert.Zero(t, analytics.Statistics.TotalEmissions)
	assert.Zero(t, analytics.Statistics.ChangePercentage)
	assert.Zero(t, analytics.Statistics.AverageEmissions)
	assert.Empty(t, analytics.ByCategory)
	assert.Empty(t, analytics.Trend)
	require.Len(t, analytics.MonthlyComparison, 1)
	assert.Equal(t, "2024-02", analytics.MonthlyComparison[0].Month)
	assert.Zero(t, analytics.MonthlyComparison[0].Current)
}

func TestOverviewChangePercentage(t *testing.T) {
	agg := &fakeAggregator{records: []fakeRecord{
		{date: day(2024, time.March, 5), category: "electricity", co2e: 150},
		{date: day(2024, time.February, 10), category: "electricity", co2e: 100},
	}}
	svc := NewAnalyticsService(agg)

	// March 1-31 has a 31-day previous window of Jan 30 - Feb 29.
	analytics, err := svc.Overview(context.Background(), nil, day(2024, time.March, 1), day(2024, time.March, 31), types.TimeframeMonth)
	require.NoError(t, err)

	assert.InDelta(t, 150, analytics.Statistics.TotalEmissions, 1e-9)
	assert.InDelta(t, 100, analytics.Statistics.PreviousPeriodEmissions, 1e-9)
	assert.InDelta(t, 50, analytics.Statistics.ChangePercentage, 1e-9)
}

func TestOverviewMonthlyComparison(t *testing.T) {
	agg := &fakeAggregator{records: []fakeRecord{
		{date: day(2023, time.December, 20), category: "waste", co2e: 40},
		{date: day(2024, time.January, 10), category: "waste", co2e: 60},
		{date: day(2024, time.February, 15), category: "waste", co2e: 90},
	}}
	svc := NewAnalyticsService(agg)

	analytics, err := svc.Overview(context.Background(), nil, day(2024, time.January, 15), day(2024, time.February, 20), types.TimeframeMonth)
	require.NoError(t, err)

	require.Len(t, analytics.MonthlyComparison, 2)

	january := analytics.MonthlyComparison[0]
	assert.Equal(t, "2024-01", january.Month)
	assert.InDelta(t, 60, january.Current, 1e-9)
	assert.InDelta(t, 40, january.Previous, 1e-9)

	february := analytics.MonthlyComparison[1]
	assert.Equal(t, "2024-02", february.Month)
	assert.InDelta(t, 90, february.Current, 1e-9)
	assert.InDelta(t, 60, february.Previous, 1e-9)
}

func TestOverviewAverageCoversInclusiveDays(t *testing.T) {
	agg := &fakeAggregator{records: []fakeRecord{
		{date: day(2024, time.April, 1), category: "electricity", co2e: 10},
		{date: day(2024, time.April, 10), category: "electricity", co2e: 20},
	}}
	svc := NewAnalyticsService(agg)

	analytics, err := svc.Overview(context.Background(), nil, day(2024, time.April, 1), day(2024, time.April, 10), types.TimeframeDay)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, analytics.Statistics.AverageEmissions, 1e-9)
}

func TestOverviewRejectsInvalidInput(t *testing.T) {
	svc := NewAnalyticsService(&fakeAggregator{})

	_, err := svc.Overview(context.Background(), nil, day(2024, time.January, 1), day(2024, time.January, 31), "hour")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Overview(context.Background(), nil, day(2024, time.January, 31), day(2024, time.January, 1), types.TimeframeDay)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBucketStart(t *testing.T) {
	// 2024-01-03 is a Wednesday; its ISO week starts Monday 2024-01-01.
	wednesday := day(2024, time.January, 3)

	assert.Equal(t, wednesday, BucketStart(wednesday, types.TimeframeDay))
	assert.Equal(t, day(2024, time.January, 1), BucketStart(wednesday, types.TimeframeWeek))
	assert.Equal(t, day(2024, time.January, 1), BucketStart(wednesday, types.TimeframeMonth))

	// Sunday belongs to the week that began the previous Monday.
	sunday := day(2024, time.January, 7)
	assert.Equal(t, day(2024, time.January, 1), BucketStart(sunday, types.TimeframeWeek))
}
