package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/emissions", nil)

	page, limit, offset, err := parsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, defaultPage, page)
	assert.Equal(t, defaultLimit, limit)
	assert.Zero(t, offset)
}

func TestParsePaginationPageAndLimit(t *testing.T) {
	req := httptest.NewRequest("GET", "/emissions?page=3&limit=25", nil)

	page, limit, offset, err := parsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)
}

func TestParsePaginationSkipAlias(t *testing.T) {
	req := httptest.NewRequest("GET", "/emissions?skip=40&limit=20", nil)

	_, limit, offset, err := parsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)
}

func TestParsePaginationClampsLimit(t *testing.T) {
	req := httptest.NewRequest("GET", "/emissions?limit=5000", nil)

	_, limit, _, err := parsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, maxLimit, limit)
}

func TestParsePaginationRejectsGarbage(t *testing.T) {
	for _, query := range []string{"page=0", "page=x", "limit=-1", "skip=-2"} {
		req := httptest.NewRequest("GET", "/emissions?"+query, nil)
		_, _, _, err := parsePagination(req)
		assert.Error(t, err, "query %q", query)
	}
}

func TestParseDateRange(t *testing.T) {
	req := httptest.NewRequest("GET", "/emissions/analytics?start_date=2024-01-01&end_date=2024-01-31", nil)

	start, end, err := parseDateRange(req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestParseDateRangeDefaultsToTrailingMonth(t *testing.T) {
	req := httptest.NewRequest("GET", "/emissions/analytics", nil)

	start, end, err := parseDateRange(req)
	require.NoError(t, err)
	assert.Equal(t, 30, int(end.Sub(start).Hours()/24))
}

func TestParseDateRangeRejectsBadDates(t *testing.T) {
	req := httptest.NewRequest("GET", "/emissions/analytics?start_date=January", nil)

	_, _, err := parseDateRange(req)
	assert.Error(t, err)
}
