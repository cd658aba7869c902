package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name       string
		total      int64
		page       int
		limit      int
		totalPages int
	}{
		{"empty", 0, 1, 10, 0},
		{"exact fit", 20, 1, 10, 2},
		{"remainder rounds up", 21, 1, 10, 3},
		{"single item", 1, 1, 10, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.total, tc.page, tc.limit)
			assert.Equal(t, tc.page, p.CurrentPage)
			assert.Equal(t, tc.totalPages, p.TotalPages)
			assert.Equal(t, tc.total, p.TotalItems)
			assert.Equal(t, tc.limit, p.ItemsPerPage)
		})
	}
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, page)

	page, err = ParsePage("3")
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	// Out-of-range values fall back, non-numbers are rejected.
	page, err = ParsePage("-1")
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, page)

	_, err = ParsePage("abc")
	assert.EqualError(t, err, "page must be a number")
}

func TestParseLimit(t *testing.T) {
	limit, err := ParseLimit("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, limit)

	limit, err = ParseLimit("50")
	require.NoError(t, err)
	assert.Equal(t, 50, limit)

	limit, err = ParseLimit("5000")
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, limit)

	limit, err = ParseLimit("0")
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, limit)

	_, err = ParseLimit("ten")
	assert.EqualError(t, err, "limit must be a number")
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 10))
	assert.Equal(t, 10, Offset(2, 10))
	assert.Equal(t, 45, Offset(10, 5))
}

func TestOrderClause(t *testing.T) {
	order, err := OrderClause("", "", ProjectSortFields, "createdAt")
	require.NoError(t, err)
	assert.Equal(t, "created_at DESC, id DESC", order)

	order, err = OrderClause("name", "asc", ProjectSortFields, "createdAt")
	require.NoError(t, err)
	assert.Equal(t, "name ASC, id ASC", order)

	order, err = OrderClause("dueDate", "desc", TaskSortFields, "createdAt")
	require.NoError(t, err)
	assert.Equal(t, "due_date DESC, id DESC", order)

	// Unknown fields never reach the database.
	_, err = OrderClause("ownerId", "asc", ProjectSortFields, "createdAt")
	assert.EqualError(t, err, "invalid sortBy value: ownerId")

	_, err = OrderClause("name; DROP TABLE projects", "asc", ProjectSortFields, "createdAt")
	assert.Error(t, err)

	_, err = OrderClause("name", "sideways", ProjectSortFields, "createdAt")
	assert.EqualError(t, err, "invalid sortOrder value: sideways")
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)

	start, end, err = ParseDateRange("2026-01-01T00:00:00Z", "2026-02-01T00:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), end.UTC())

	_, _, err = ParseDateRange("yesterday", "")
	assert.EqualError(t, err, "startDate must be an ISO-8601 datetime")

	_, _, err = ParseDateRange("", "2026-02-30")
	assert.EqualError(t, err, "endDate must be an ISO-8601 datetime")
}
