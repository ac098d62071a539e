package query

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbookings/reservation-backend/internal/pkg/apperror"
)

var testCols = []string{"resourceName", "reservationCount"}

func parseQuery(t *testing.T, rawQuery string) (*Params, error) {
	t.Helper()
	values, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	return Parse(values, testCols)
}

func assertBadRequest(t *testing.T, err error, message string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}

func TestParseDefaults(t *testing.T) {
	p, err := parseQuery(t, "")
	require.NoError(t, err)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.PageSize, "page size defaults to unbounded")
	assert.Equal(t, 0, p.Skip)
	assert.Equal(t, "resourceName", p.SortCol, "first allowed column is the default")
	assert.Equal(t, DirAsc, p.SortDir)
	assert.Nil(t, p.StartsBefore)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		wantSize int
		wantSkip int
	}{
		{"size only", "size=10", 10, 0},
		{"size and page", "size=10&page=3", 10, 20},
		{"page without size leaves skip zero", "page=5", 0, 0},
		{"leading zeros are still digits", "size=007&page=02", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parseQuery(t, tt.rawQuery)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, p.PageSize)
			assert.Equal(t, tt.wantSkip, p.Skip)
		})
	}
}

func TestParsePaginationInvalid(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
	}{
		{"size zero", "size=0"},
		{"size negative", "size=-3"},
		{"size not numeric", "size=ten"},
		{"size trailing garbage", "size=10abc"},
		{"size repeated", "size=10&size=20"},
		{"page zero", "page=0"},
		{"page not numeric", "page=two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseQuery(t, tt.rawQuery)
			assertBadRequest(t, err, "Page size must be a positive non-zero integer")
		})
	}
}

func TestParseFilters(t *testing.T) {
	p, err := parseQuery(t, "userID=u1&user=ali&resourceID=r1&resource=court&description=indoor")
	require.NoError(t, err)

	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "ali", p.UserName)
	assert.Equal(t, "r1", p.ResourceID)
	assert.Equal(t, "court", p.ResourceName)
	assert.Equal(t, "indoor", p.Description)
}

func TestParseFiltersRejectRepeatedValues(t *testing.T) {
	tests := []struct {
		rawQuery string
		message  string
	}{
		{"userID=a&userID=b", "User ID query is invalid"},
		{"user=a&user=b", "User name query is invalid"},
		{"resourceID=a&resourceID=b", "Resource ID query is invalid"},
		{"resource=a&resource=b", "Resource name query is invalid"},
		{"description=a&description=b", "Description query is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.rawQuery, func(t *testing.T) {
			_, err := parseQuery(t, tt.rawQuery)
			assertBadRequest(t, err, tt.message)
		})
	}
}

func TestParseDateBounds(t *testing.T) {
	p, err := parseQuery(t, "startsAfter=2025-06-01T10:00:00Z&endsBefore=2025-06-01")
	require.NoError(t, err)

	require.NotNil(t, p.StartsAfter)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), *p.StartsAfter)
	require.NotNil(t, p.EndsBefore)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *p.EndsBefore)
	assert.Nil(t, p.StartsBefore)
	assert.Nil(t, p.EndsAfter)
}

func TestParseDateBoundsInvalid(t *testing.T) {
	for _, rawQuery := range []string{
		"startsBefore=yesterday",
		"startsAfter=2025-13-40",
		"endsBefore=a&endsBefore=b",
		"endsAfter=1717200000", // epoch seconds are not ISO-8601
	} {
		t.Run(rawQuery, func(t *testing.T) {
			_, err := parseQuery(t, rawQuery)
			assertBadRequest(t, err, "Query times are invalid")
		})
	}
}

func TestParseSort(t *testing.T) {
	p, err := parseQuery(t, "col=reservationCount&dir=desc")
	require.NoError(t, err)
	assert.Equal(t, "reservationCount", p.SortCol)
	assert.Equal(t, DirDesc, p.SortDir)

	_, err = parseQuery(t, "col=ownerName")
	assertBadRequest(t, err, "Query column is invalid")

	_, err = parseQuery(t, "dir=descending")
	assertBadRequest(t, err, "Query direction is invalid")

	_, err = parseQuery(t, "dir=DESC")
	assertBadRequest(t, err, "Query direction is invalid")
}

func TestParseTimeLayouts(t *testing.T) {
	for _, s := range []string{
		"2025-06-01T10:00:00.123Z",
		"2025-06-01T10:00:00+02:00",
		"2025-06-01T10:00:00",
		"2025-06-01T10:00",
		"2025-06-01",
	} {
		_, err := ParseTime(s)
		assert.NoError(t, err, s)
	}

	_, err := ParseTime("June 1st 2025")
	assert.Error(t, err)
}
