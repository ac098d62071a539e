package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbookings/reservation-backend/internal/pkg/query"
)

// ListColumns are the sort columns the listing accepts, default first.
var ListColumns = []string{"userName", "resourceCount", "reservationCount"}

var sortColumns = map[string]string{
	"userName":         "u.user_name",
	"resourceCount":    "resource_count",
	"reservationCount": "reservation_count",
}

type Repository interface {
	// Upsert mirrors a provider account locally, updating the username when
	// the ID is already known.
	Upsert(ctx context.Context, id, userName string) (*User, error)
	// UpsertAll mirrors a batch of provider accounts in one round trip.
	UpsertAll(ctx context.Context, users map[string]string) error
	List(ctx context.Context, q *query.Params) ([]*User, int, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUserName(ctx context.Context, userName string) (*User, error)
	Delete(ctx context.Context, id string) error

	// Detail attachments, capped so a hot account cannot flood a response.
	ResourcesByOwner(ctx context.Context, ownerID, orderBy string) ([]ResourceSummary, error)
	ReservationsByUser(ctx context.Context, userID string, after *time.Time) ([]ReservationSummary, error)
}

const attachmentCap = 100

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Upsert(ctx context.Context, id, userName string) (*User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Insert("public.users").
		Columns("id", "user_name").
		Values(id, userName).
		Suffix("ON CONFLICT (id) DO UPDATE SET user_name = EXCLUDED.user_name RETURNING id, user_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert user query failed: %w", err)
	}

	var u User
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.UserName); err != nil {
		// The username is unique across mirrors; a clash means the provider
		// reissued the name under a different account ID.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("upsert user failed: %w", err)
	}
	return &u, nil
}

func (r *pgxRepository) UpsertAll(ctx context.Context, users map[string]string) error {
	if len(users) == 0 {
		return nil
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Insert("public.users").Columns("id", "user_name")
	for id, userName := range users {
		builder = builder.Values(id, userName)
	}
	sql, args, err := builder.
		Suffix("ON CONFLICT (id) DO UPDATE SET user_name = EXCLUDED.user_name").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert users query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert users failed: %w", err)
	}
	return nil
}

// buildListQuery assembles the listing statement. The total count rides on
// every row as a window aggregate so the page and the count come from the
// same snapshot.
func buildListQuery(q *query.Params) (string, []any, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(
		"u.id", "u.user_name",
		"(SELECT count(*) FROM public.resources r WHERE r.owner_id = u.id) AS resource_count",
		"(SELECT count(*) FROM public.reservations b WHERE b.user_id = u.id) AS reservation_count",
		"count(*) OVER() AS total_count",
	).From("public.users u")

	if q.UserID != "" {
		builder = builder.Where(squirrel.Expr("u.id::text = ?", q.UserID))
	}
	if q.UserName != "" {
		builder = builder.Where(squirrel.ILike{"u.user_name": "%" + q.UserName + "%"})
	}

	builder = builder.OrderBy(sortColumns[q.SortCol] + " " + q.SortDir)

	if q.PageSize > 0 {
		builder = builder.Limit(uint64(q.PageSize)).Offset(uint64(q.Skip))
	}

	return builder.ToSql()
}

func (r *pgxRepository) List(ctx context.Context, q *query.Params) ([]*User, int, error) {
	sql, args, err := buildListQuery(q)
	if err != nil {
		return nil, 0, fmt.Errorf("build list users query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users failed: %w", err)
	}
	defer rows.Close()

	var users []*User
	var total int
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.UserName, &u.ResourceCount, &u.ReservationCount, &total); err != nil {
			return nil, 0, fmt.Errorf("scan user failed: %w", err)
		}
		users = append(users, &u)
	}
	return users, total, rows.Err()
}

const userSelect = `
SELECT u.id, u.user_name,
       (SELECT count(*) FROM public.resources r WHERE r.owner_id = u.id),
       (SELECT count(*) FROM public.reservations b WHERE b.user_id = u.id)
FROM public.users u`

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, userSelect+" WHERE u.id::text = $1", id)
}

func (r *pgxRepository) GetByUserName(ctx context.Context, userName string) (*User, error) {
	return r.getUser(ctx, userSelect+" WHERE u.user_name = $1", userName)
}

func (r *pgxRepository) getUser(ctx context.Context, sql string, arg any) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, sql, arg).Scan(&u.ID, &u.UserName, &u.ResourceCount, &u.ReservationCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return &u, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, "DELETE FROM public.users WHERE id::text = $1", id)
	if err != nil {
		return fmt.Errorf("delete user failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ResourcesByOwner(ctx context.Context, ownerID, orderBy string) ([]ResourceSummary, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select(
		"r.id", "r.name", "r.description",
		"(SELECT count(*) FROM public.reservations b WHERE b.resource_id = r.id) AS reservation_count",
		"r.created_at",
	).
		From("public.resources r").
		Where(squirrel.Eq{"r.owner_id": ownerID}).
		OrderBy(orderBy).
		Limit(attachmentCap).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build owned resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list owned resources failed: %w", err)
	}
	defer rows.Close()

	var resources []ResourceSummary
	for rows.Next() {
		var res ResourceSummary
		if err := rows.Scan(&res.ID, &res.Name, &res.Description, &res.ReservationCount, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan owned resource failed: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *pgxRepository) ReservationsByUser(ctx context.Context, userID string, after *time.Time) ([]ReservationSummary, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select("b.id", "b.resource_id", "r.name", "b.start_time", "b.end_time").
		From("public.reservations b").
		Join("public.resources r ON b.resource_id = r.id").
		Where(squirrel.Eq{"b.user_id": userID})

	if after != nil {
		builder = builder.Where(squirrel.GtOrEq{"b.end_time": *after})
	}

	sql, args, err := builder.OrderBy("b.start_time ASC").Limit(attachmentCap).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list user reservations failed: %w", err)
	}
	defer rows.Close()

	var reservations []ReservationSummary
	for rows.Next() {
		var b ReservationSummary
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.ResourceName, &b.StartTime, &b.EndTime); err != nil {
			return nil, fmt.Errorf("scan user reservation failed: %w", err)
		}
		reservations = append(reservations, b)
	}
	return reservations, rows.Err()
}
