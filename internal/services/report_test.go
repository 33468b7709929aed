package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/carbontrace/apiserver/internal/storage"
	"github.com/carbontrace/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStorage is an in-memory ObjectStorage for exercising the export
// path without a real backend.
type memoryStorage struct {
	objects map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (m *memoryStorage) EnsureBucket(ctx context.Context) error { return nil }

func (m *memoryStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.objects[key])), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) Bucket() string { return "test-reports" }

func TestReportExportArchivesCSV(t *testing.T) {
	agg := &fakeAggregator{records: []fakeRecord{
		{date: day(2024, time.January, 1), category: "electricity", co2e: 5.0},
		{date: day(2024, time.January, 1), category: "transport", co2e: 0.8},
	}}
	backend := newMemoryStorage()
	svc := NewReportService(NewAnalyticsService(agg), storage.NewArchive(backend))

	ref, err := svc.Export(context.Background(), nil, day(2024, time.January, 1), day(2024, time.January, 31), types.TimeframeDay)
	require.NoError(t, err)

	assert.Equal(t, "test-reports", ref.Bucket)
	assert.True(t, strings.HasPrefix(ref.Key, "reports/all/emissions_2024-01-01_2024-01-31_"), "unexpected key %q", ref.Key)

	data, ok := backend.objects[ref.Key]
	require.True(t, ok, "report object not stored")

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"section", "label", "value", "extra"}, rows[0])
	assert.Equal(t, []string{"statistics", "total_emissions", "5.8", ""}, rows[1])

	var categories []string
	for _, row := range rows {
		if row[0] == "by_category" {
			categories = append(categories, row[1])
		}
	}
	assert.ElementsMatch(t, []string{"electricity", "transport"}, categories)
}

func TestReportExportScopesKeyToOwner(t *testing.T) {
	backend := newMemoryStorage()
	svc := NewReportService(NewAnalyticsService(&fakeAggregator{}), storage.NewArchive(backend))

	ownerID := 9
	ref, err := svc.Export(context.Background(), &ownerID, day(2024, time.March, 1), day(2024, time.March, 31), types.TimeframeMonth)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref.Key, "reports/owner-9/"), "unexpected key %q", ref.Key)
}

func TestReportExportWithoutArchive(t *testing.T) {
	svc := NewReportService(NewAnalyticsService(&fakeAggregator{}), nil)

	_, err := svc.Export(context.Background(), nil, day(2024, time.January, 1), day(2024, time.January, 31), types.TimeframeDay)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}
