package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbookings/reservation-backend/internal/pkg/query"
)

func TestBuildListQuery(t *testing.T) {
	base := func() *query.Params {
		return &query.Params{
			Page:     1,
			PageSize: 10,
			SortCol:  "resourceName",
			SortDir:  query.DirAsc,
		}
	}

	t.Run("defaults", func(t *testing.T) {
		sql, args, err := buildListQuery(base())
		require.NoError(t, err)

		assert.Contains(t, sql, "count(*) OVER() AS total_count")
		assert.Contains(t, sql, "JOIN public.users u ON r.owner_id = u.id")
		assert.Contains(t, sql, "ORDER BY r.name asc")
		assert.Contains(t, sql, "LIMIT 10 OFFSET 0")
		assert.Empty(t, args)
	})

	t.Run("filters", func(t *testing.T) {
		q := base()
		q.ResourceName = "court"
		q.Description = "indoor"
		q.UserName = "alice"
		q.UserID = "u-1"

		sql, args, err := buildListQuery(q)
		require.NoError(t, err)

		assert.Contains(t, sql, "r.name ILIKE $1")
		assert.Contains(t, sql, "r.description ILIKE $2")
		assert.Contains(t, sql, "u.user_name ILIKE $3")
		assert.Contains(t, sql, "u.id::text = $4")
		assert.Equal(t, []any{"%court%", "%indoor%", "%alice%", "u-1"}, args)
	})

	t.Run("sort by popularity", func(t *testing.T) {
		q := base()
		q.SortCol = "reservationCount"
		q.SortDir = query.DirDesc

		sql, _, err := buildListQuery(q)
		require.NoError(t, err)

		assert.Contains(t, sql, "ORDER BY reservation_count desc")
	})

	t.Run("page size zero is unbounded", func(t *testing.T) {
		q := base()
		q.PageSize = 0

		sql, _, err := buildListQuery(q)
		require.NoError(t, err)

		assert.NotContains(t, sql, "LIMIT")
	})
}
