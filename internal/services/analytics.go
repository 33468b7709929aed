package services

import (
	"context"
	"fmt"
	"time"

	"github.com/carbontrace/apiserver/types"
)

// EmissionAggregator is the read-only query surface the analytics engine
// needs. Each call is a single self-consistent aggregate; the engine
// never assumes point-in-time consistency across calls, so it tolerates
// concurrent writes under read-committed isolation.
type EmissionAggregator interface {
	SumCO2e(ctx context.Context, ownerID *int, start, end time.Time) (float64, error)
	SumCO2eByCategory(ctx context.Context, ownerID *int, start, end time.Time) ([]types.CategoryEmissions, error)
	SumCO2eByBucket(ctx context.Context, ownerID *int, start, end time.Time, timeframe string) ([]types.TrendPoint, error)
}

// AnalyticsService computes aggregated emissions views. It issues
// read-only queries only and holds no state across calls.
type AnalyticsService struct {
	agg EmissionAggregator
}

func NewAnalyticsService(agg EmissionAggregator) *AnalyticsService {
	return &AnalyticsService{agg: agg}
}

// Overview aggregates the owner's emissions over [start, end] inclusive.
// ownerID nil widens the scope to every owner (admin callers only; the
// handler layer decides).
func (s *AnalyticsService) Overview(ctx context.Context, ownerID *int, start, end time.Time, timeframe string) (types.EmissionsAnalytics, error) {
	if !types.ValidTimeframe(timeframe) {
		return types.EmissionsAnalytics{}, fmt.Errorf("%w: timeframe must be day, week or month", ErrInvalidInput)
	}
	start = dateOf(start)
	end = dateOf(end)
	if end.Before(start) {
		return types.EmissionsAnalytics{}, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	total, err := s.agg.SumCO2e(ctx, ownerID, start, end)
	if err != nil {
		return types.EmissionsAnalytics{}, err
	}

	// The previous period is the immediately preceding window of
	// identical length: previousEnd = start-1d, previousStart =
	// previousEnd - (end-start).
	previousEnd := start.AddDate(0, 0, -1)
	previousStart := previousEnd.AddDate(0, 0, -daysBetween(start, end))
	previous, err := s.agg.SumCO2e(ctx, ownerID, previousStart, previousEnd)
	if err != nil {
		return types.EmissionsAnalytics{}, err
	}

	changePercentage := 0.0
	if previous > 0 {
		changePercentage = (total - previous) / previous * 100
	}

	days := daysBetween(start, end) + 1
	averageEmissions := 0.0
	if days > 0 {
		averageEmissions = total / float64(days)
	}

	byCategory, err := s.agg.SumCO2eByCategory(ctx, ownerID, start, end)
	if err != nil {
		return types.EmissionsAnalytics{}, err
	}

	trend, err := s.agg.SumCO2eByBucket(ctx, ownerID, start, end, timeframe)
	if err != nil {
		return types.EmissionsAnalytics{}, err
	}

	monthly, err := s.monthlyComparison(ctx, ownerID, start, end)
	if err != nil {
		return types.EmissionsAnalytics{}, err
	}

	if byCategory == nil {
		byCategory = []types.CategoryEmissions{}
	}
	if trend == nil {
		trend = []types.TrendPoint{}
	}

	return types.EmissionsAnalytics{
		Statistics: types.EmissionsStatistics{
			TotalEmissions:          total,
			PreviousPeriodEmissions: previous,
			ChangePercentage:        changePercentage,
			AverageEmissions:        averageEmissions,
		},
		ByCategory:        byCategory,
		Trend:             trend,
		MonthlyComparison: monthly,
	}, nil
}

// monthlyComparison walks every calendar month from start's month through
// end's month inclusive, pairing each month's total with the immediately
// preceding calendar month's total. True month lengths throughout.
func (s *AnalyticsService) monthlyComparison(ctx context.Context, ownerID *int, start, end time.Time) ([]types.MonthComparison, error) {
	var comparison []types.MonthComparison

	lastMonth := monthStart(end)
	for month := monthStart(start); !month.After(lastMonth); month = month.AddDate(0, 1, 0) {
		monthEnd := month.AddDate(0, 1, -1)
		current, err := s.agg.SumCO2e(ctx, ownerID, month, monthEnd)
		if err != nil {
			return nil, err
		}

		previousMonth := month.AddDate(0, -1, 0)
		previousMonthEnd := month.AddDate(0, 0, -1)
		previous, err := s.agg.SumCO2e(ctx, ownerID, previousMonth, previousMonthEnd)
		if err != nil {
			return nil, err
		}

		comparison = append(comparison, types.MonthComparison{
			Month:    month.Format("2006-01"),
			Current:  current,
			Previous: previous,
		})
	}
	if comparison == nil {
		comparison = []types.MonthComparison{}
	}
	return comparison, nil
}

// dateOf truncates a timestamp to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// monthStart returns the first day of t's calendar month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from a to b (both date-truncated).
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// BucketStart returns the start of the bucket containing day for the
// given timeframe: the day itself, the ISO week's Monday, or the first
// of the month.
func BucketStart(day time.Time, timeframe string) time.Time {
	day = dateOf(day)
	switch timeframe {
	case types.TimeframeWeek:
		// ISO weeks start on Monday; Go's Weekday makes Sunday 0.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case types.TimeframeMonth:
		return monthStart(day)
	default:
		return day
	}
}
