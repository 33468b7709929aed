package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/carbontrace/apiserver/internal/storage"
	"github.com/carbontrace/apiserver/types"
)

// ErrArchiveDisabled is returned when report export is requested but no
// object storage backend is configured.
var ErrArchiveDisabled = errors.New("report archive is not configured")

// ReportRef points at an exported report in object storage.
type ReportRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// ReportService renders emissions analytics as CSV and archives the
// result in object storage.
type ReportService struct {
	analytics *AnalyticsService
	archive   *storage.Archive
}

// NewReportService constructs a ReportService. archive may be nil when
// no storage backend is configured; Export then fails with
// ErrArchiveDisabled.
func NewReportService(analytics *AnalyticsService, archive *storage.Archive) *ReportService {
	return &ReportService{analytics: analytics, archive: archive}
}

// Export aggregates the owner's emissions over [start, end], renders the
// result as CSV and uploads it. The returned reference names the stored
// object.
func (s *ReportService) Export(ctx context.Context, ownerID *int, start, end time.Time, timeframe string) (ReportRef, error) {
	if s.archive == nil {
		return ReportRef{}, ErrArchiveDisabled
	}

	analytics, err := s.analytics.Overview(ctx, ownerID, start, end, timeframe)
	if err != nil {
		return ReportRef{}, err
	}

	var buf bytes.Buffer
	if err := renderReportCSV(&buf, analytics); err != nil {
		return ReportRef{}, err
	}

	key := reportKey(ownerID, start, end, time.Now().UTC())
	if err := s.archive.Put(ctx, key, &buf, int64(buf.Len()), "text/csv"); err != nil {
		return ReportRef{}, fmt.Errorf("failed to archive report: %w", err)
	}

	return ReportRef{Bucket: s.archive.Bucket(), Key: key}, nil
}

func reportKey(ownerID *int, start, end, now time.Time) string {
	scope := "all"
	if ownerID != nil {
		scope = "owner-" + strconv.Itoa(*ownerID)
	}
	return fmt.Sprintf("reports/%s/emissions_%s_%s_%d.csv",
		scope, start.Format("2006-01-02"), end.Format("2006-01-02"), now.Unix())
}

// renderReportCSV writes the analytics overview as a sectioned CSV
// document: summary statistics, per-category totals, the trend series
// and the month-over-month comparison.
func renderReportCSV(buf *bytes.Buffer, a types.EmissionsAnalytics) error {
	w := csv.NewWriter(buf)

	records := [][]string{
		{"section", "label", "value", "extra"},
		{"statistics", "total_emissions", formatFloat(a.Statistics.TotalEmissions), ""},
		{"statistics", "previous_period_emissions", formatFloat(a.Statistics.PreviousPeriodEmissions), ""},
		{"statistics", "change_percentage", formatFloat(a.Statistics.ChangePercentage), ""},
		{"statistics", "average_emissions", formatFloat(a.Statistics.AverageEmissions), ""},
	}
	for _, c := range a.ByCategory {
		records = append(records, []string{"by_category", c.Category, formatFloat(c.Emissions), ""})
	}
	for _, p := range a.Trend {
		records = append(records, []string{"trend", p.Bucket.Format("2006-01-02"), formatFloat(p.Emissions), ""})
	}
	for _, m := range a.MonthlyComparison {
		records = append(records, []string{"monthly_comparison", m.Month, formatFloat(m.Current), formatFloat(m.Previous)})
	}

	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
