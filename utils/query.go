package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Sort whitelists per resource, mapping the query-parameter spelling to the
// column it sorts by. Anything not listed here is rejected, never passed
// through to the database.
var (
	ProjectSortFields = map[string]string{
		"name":      "name",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	}

	TaskSortFields = map[string]string{
		"title":     "title",
		"status":    "status",
		"priority":  "priority",
		"dueDate":   "due_date",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	}

	ActivitySortFields = map[string]string{
		"timestamp": "timestamp",
		"action":    "action",
		"createdAt": "created_at",
	}
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is the metadata block returned with every list response.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// NewPagination derives the metadata for a page of a result set of the given
// total size.
func NewPagination(total int64, page, limit int) Pagination {
	return Pagination{
		CurrentPage:  page,
		TotalPages:   int(math.Ceil(float64(total) / float64(limit))),
		TotalItems:   total,
		ItemsPerPage: limit,
	}
}

// ParsePage coerces the page query parameter. Empty means the first page;
// non-numeric input is rejected.
func ParsePage(raw string) (int, error) {
	if raw == "" {
		return DefaultPage, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("page must be a number")
	}
	if page < 1 {
		page = DefaultPage
	}
	return page, nil
}

// ParseLimit coerces the limit query parameter, capped at MaxLimit.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be a number")
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit, nil
}

// Offset converts 1-based page/limit into a query offset.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// OrderClause builds an ORDER BY clause from untrusted sortBy/sortOrder
// values against a per-resource whitelist. The id tiebreak keeps pagination
// stable when the sort column has duplicates.
func OrderClause(sortBy, sortOrder string, allowed map[string]string, defaultField string) (string, error) {
	if sortBy == "" {
		sortBy = defaultField
	}
	column, ok := allowed[sortBy]
	if !ok {
		return "", fmt.Errorf("invalid sortBy value: %s", sortBy)
	}

	dir := "DESC"
	switch sortOrder {
	case "", "desc":
	case "asc":
		dir = "ASC"
	default:
		return "", fmt.Errorf("invalid sortOrder value: %s", sortOrder)
	}

	return column + " " + dir + ", id " + dir, nil
}

// SearchScope matches the term as a case-insensitive substring across the
// given columns.
func SearchScope(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		pattern := "%" + strings.ToLower(term) + "%"
		conditions := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			conditions[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = pattern
		}
		return db.Where(strings.Join(conditions, " OR "), args...)
	}
}

// DateRangeScope bounds the column inclusively. A start after the end simply
// produces an empty result set.
func DateRangeScope(column string, start, end *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if start != nil {
			db = db.Where(column+" >= ?", *start)
		}
		if end != nil {
			db = db.Where(column+" <= ?", *end)
		}
		return db
	}
}

// ParseDateRange parses optional RFC 3339 startDate/endDate parameters.
func ParseDateRange(startRaw, endRaw string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startRaw != "" {
		t, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return nil, nil, errors.New("startDate must be an ISO-8601 datetime")
		}
		start = &t
	}
	if endRaw != "" {
		t, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return nil, nil, errors.New("endDate must be an ISO-8601 datetime")
		}
		end = &t
	}
	return start, end, nil
}
