package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbookings/reservation-backend/internal/pkg/query"
)

// ListColumns are the sort columns the listing accepts, default first.
var ListColumns = []string{"resourceName", "reservationCount"}

var sortColumns = map[string]string{
	"resourceName":     "r.name",
	"reservationCount": "reservation_count",
}

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, q *query.Params) ([]*Resource, int, error)
	Update(ctx context.Context, res *Resource) error
	Delete(ctx context.Context, id string) error

	// UpcomingReservations lists reservations on the resource that have not
	// ended yet, soonest first, capped at 100 rows.
	UpcomingReservations(ctx context.Context, resourceID string) ([]ReservationEntry, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Insert("public.resources").
		Columns("owner_id", "name", "description").
		Values(res.OwnerID, res.Name, res.Description).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create resource query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&res.ID, &res.CreatedAt); err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	sql := `
SELECT r.id, r.name, r.description, r.owner_id, u.user_name,
       (SELECT count(*) FROM public.reservations b WHERE b.resource_id = r.id),
       r.created_at
FROM public.resources r
JOIN public.users u ON r.owner_id = u.id
WHERE r.id::text = $1`

	var res Resource
	err := r.pool.QueryRow(ctx, sql, id).Scan(
		&res.ID, &res.Name, &res.Description, &res.OwnerID, &res.OwnerName,
		&res.ReservationCount, &res.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource failed: %w", err)
	}
	return &res, nil
}

// buildListQuery assembles the listing statement. The total count rides on
// every row as a window aggregate so the page and the count come from the
// same snapshot.
func buildListQuery(q *query.Params) (string, []any, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(
		"r.id", "r.name", "r.description", "r.owner_id", "u.user_name",
		"(SELECT count(*) FROM public.reservations b WHERE b.resource_id = r.id) AS reservation_count",
		"r.created_at",
		"count(*) OVER() AS total_count",
	).
		From("public.resources r").
		Join("public.users u ON r.owner_id = u.id")

	if q.ResourceName != "" {
		builder = builder.Where(squirrel.ILike{"r.name": "%" + q.ResourceName + "%"})
	}
	if q.Description != "" {
		builder = builder.Where(squirrel.ILike{"r.description": "%" + q.Description + "%"})
	}
	if q.UserName != "" {
		builder = builder.Where(squirrel.ILike{"u.user_name": "%" + q.UserName + "%"})
	}
	if q.UserID != "" {
		builder = builder.Where(squirrel.Expr("u.id::text = ?", q.UserID))
	}

	builder = builder.OrderBy(sortColumns[q.SortCol] + " " + q.SortDir)

	if q.PageSize > 0 {
		builder = builder.Limit(uint64(q.PageSize)).Offset(uint64(q.Skip))
	}

	return builder.ToSql()
}

func (r *pgxRepository) List(ctx context.Context, q *query.Params) ([]*Resource, int, error) {
	sql, args, err := buildListQuery(q)
	if err != nil {
		return nil, 0, fmt.Errorf("build list resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources failed: %w", err)
	}
	defer rows.Close()

	var resources []*Resource
	var total int
	for rows.Next() {
		var res Resource
		if err := rows.Scan(
			&res.ID, &res.Name, &res.Description, &res.OwnerID, &res.OwnerName,
			&res.ReservationCount, &res.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan resource failed: %w", err)
		}
		resources = append(resources, &res)
	}
	return resources, total, rows.Err()
}

func (r *pgxRepository) Update(ctx context.Context, res *Resource) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Update("public.resources").
		Set("name", res.Name).
		Set("description", res.Description).
		Where(squirrel.Expr("id::text = ?", res.ID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update resource query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update resource failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, "DELETE FROM public.resources WHERE id::text = $1", id)
	if err != nil {
		return fmt.Errorf("delete resource failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) UpcomingReservations(ctx context.Context, resourceID string) ([]ReservationEntry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Select("b.id", "b.start_time", "b.end_time", "b.user_id", "u.user_name").
		From("public.reservations b").
		Join("public.users u ON b.user_id = u.id").
		Where(squirrel.Eq{"b.resource_id": resourceID}).
		Where(squirrel.GtOrEq{"b.end_time": time.Now()}).
		OrderBy("b.start_time ASC").
		Limit(100).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upcoming reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list upcoming reservations failed: %w", err)
	}
	defer rows.Close()

	var entries []ReservationEntry
	for rows.Next() {
		var e ReservationEntry
		if err := rows.Scan(&e.ID, &e.StartTime, &e.EndTime, &e.ReserveeID, &e.ReserveeName); err != nil {
			return nil, fmt.Errorf("scan upcoming reservation failed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
