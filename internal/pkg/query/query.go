// Package query parses and validates the pagination/filter/sort parameters
// shared by the user, resource and reservation listings into a canonical
// descriptor. Parsing is a pure transform of the raw URL values; every
// violation maps to a 400-class AppError.
package query

import (
	"regexp"
	"strconv"
	"time"

	"github.com/openbookings/reservation-backend/internal/pkg/apperror"
)

// Sort directions accepted by Parse.
const (
	DirAsc  = "asc"
	DirDesc = "desc"
)

// Params is the validated query descriptor consumed by the listing
// repositories. PageSize 0 means the result set is unbounded.
type Params struct {
	Page     int
	PageSize int
	Skip     int

	UserID       string // exact match
	UserName     string // substring match
	ResourceID   string // exact match
	ResourceName string // substring match
	Description  string // substring match

	StartsBefore *time.Time
	StartsAfter  *time.Time
	EndsBefore   *time.Time
	EndsAfter    *time.Time

	SortCol string
	SortDir string
}

var positiveInt = regexp.MustCompile(`^\d+$`)

var (
	errPageSize  = apperror.BadRequest("Page size must be a positive non-zero integer")
	errDates     = apperror.BadRequest("Query times are invalid")
	errSortCol   = apperror.BadRequest("Query column is invalid")
	errSortDir   = apperror.BadRequest("Query direction is invalid")
	errUserID    = apperror.BadRequest("User ID query is invalid")
	errUserName  = apperror.BadRequest("User name query is invalid")
	errResID     = apperror.BadRequest("Resource ID query is invalid")
	errResName   = apperror.BadRequest("Resource name query is invalid")
	errDescQuery = apperror.BadRequest("Description query is invalid")
)

// timeLayouts are the ISO-8601 shapes accepted for the date-bound parameters
// (and reused by the reservation scheduler for request bodies).
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp into a canonical instant.
func ParseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Parse validates raw query values against the caller-supplied list of
// permissible sort columns (ordered; the first is the default) and returns
// the canonical descriptor. values is the multimap shape of url.Values.
func Parse(values map[string][]string, cols []string) (*Params, error) {
	p := &Params{
		Page:    1,
		SortDir: DirAsc,
	}
	if len(cols) > 0 {
		p.SortCol = cols[0]
	}

	size, err := positiveIntParam(values, "size")
	if err != nil {
		return nil, err
	}
	p.PageSize = size

	if page, err := positiveIntParam(values, "page"); err != nil {
		return nil, err
	} else if page > 0 {
		p.Page = page
	}

	if p.PageSize > 0 {
		p.Skip = p.PageSize * (p.Page - 1)
	}

	if p.UserID, err = stringParam(values, "userID", errUserID); err != nil {
		return nil, err
	}
	if p.UserName, err = stringParam(values, "user", errUserName); err != nil {
		return nil, err
	}
	if p.ResourceID, err = stringParam(values, "resourceID", errResID); err != nil {
		return nil, err
	}
	if p.ResourceName, err = stringParam(values, "resource", errResName); err != nil {
		return nil, err
	}
	if p.Description, err = stringParam(values, "description", errDescQuery); err != nil {
		return nil, err
	}

	if p.StartsBefore, err = timeParam(values, "startsBefore"); err != nil {
		return nil, err
	}
	if p.StartsAfter, err = timeParam(values, "startsAfter"); err != nil {
		return nil, err
	}
	if p.EndsBefore, err = timeParam(values, "endsBefore"); err != nil {
		return nil, err
	}
	if p.EndsAfter, err = timeParam(values, "endsAfter"); err != nil {
		return nil, err
	}

	if col, err := stringParam(values, "col", errSortCol); err != nil {
		return nil, err
	} else if col != "" {
		if !contains(cols, col) {
			return nil, errSortCol
		}
		p.SortCol = col
	}

	if dir, err := stringParam(values, "dir", errSortDir); err != nil {
		return nil, err
	} else if dir != "" {
		if dir != DirAsc && dir != DirDesc {
			return nil, errSortDir
		}
		p.SortDir = dir
	}

	return p, nil
}

// positiveIntParam returns 0 when the key is absent, the parsed value when it
// is a positive non-zero integer, and errPageSize otherwise.
func positiveIntParam(values map[string][]string, key string) (int, error) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return 0, nil
	}
	if len(vs) != 1 || !positiveInt.MatchString(vs[0]) {
		return 0, errPageSize
	}
	n, err := strconv.Atoi(vs[0])
	if err != nil || n <= 0 {
		return 0, errPageSize
	}
	return n, nil
}

// stringParam enforces that a filter value, when present, is a single string.
func stringParam(values map[string][]string, key string, invalid *apperror.AppError) (string, error) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", nil
	}
	if len(vs) != 1 {
		return "", invalid
	}
	return vs[0], nil
}

func timeParam(values map[string][]string, key string) (*time.Time, error) {
	s, err := stringParam(values, key, errDates)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, errDates
	}
	return &t, nil
}

func contains(cols []string, col string) bool {
	for _, c := range cols {
		if c == col {
			return true
		}
	}
	return false
}
