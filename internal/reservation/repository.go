package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbookings/reservation-backend/internal/db"
	"github.com/openbookings/reservation-backend/internal/pkg/query"
)

// ListColumns are the sort columns the listing accepts, default first.
var ListColumns = []string{"startTime", "endTime"}

var sortColumns = map[string]string{
	"startTime": "b.start_time",
	"endTime":   "b.end_time",
}

type Repository interface {
	Create(ctx context.Context, b *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, q *query.Params) ([]*Reservation, int, error)
	Update(ctx context.Context, b *Reservation) error
	Delete(ctx context.Context, id string) error

	// InTx runs fn against a repository scoped to one transaction. Called on
	// a repository that is already transactional, it reuses that transaction.
	InTx(ctx context.Context, fn func(Repository) error) error

	// LockResource takes a row lock on the resource so concurrent schedule
	// checks against it serialize. Only meaningful inside InTx.
	LockResource(ctx context.Context, resourceID string) error

	// FirstConflict returns the ID of a reservation on the resource that
	// overlaps [start, end), ignoring excludeID. ok is false when the slot
	// is free.
	FirstConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (string, bool, error)
}

type pgxRepository struct {
	conn db.Conn
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{conn: pool, pool: pool}
}

func (r *pgxRepository) InTx(ctx context.Context, fn func(Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgxRepository{conn: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *pgxRepository) LockResource(ctx context.Context, resourceID string) error {
	var id string
	err := r.conn.QueryRow(ctx, "SELECT id FROM public.resources WHERE id::text = $1 FOR UPDATE", resourceID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("lock resource failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) FirstConflict(ctx context.Context, resourceID string, start, end time.Time, excludeID string) (string, bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select("id").
		From("public.reservations").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time ASC").
		Limit(1)

	if excludeID != "" {
		builder = builder.Where(squirrel.Expr("id::text <> ?", excludeID))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build conflict query failed: %w", err)
	}

	var id string
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("check conflict failed: %w", err)
	}
	return id, true, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Insert("public.reservations").
		Columns("resource_id", "user_id", "start_time", "end_time").
		Values(b.ResourceID, b.UserID, b.StartTime, b.EndTime).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		return fmt.Errorf("create reservation failed: %w", err)
	}
	return nil
}

const reservationSelect = `
SELECT b.id, b.resource_id, r.name, b.user_id, u.user_name, b.start_time, b.end_time, b.created_at
FROM public.reservations b
JOIN public.resources r ON b.resource_id = r.id
JOIN public.users u ON b.user_id = u.id`

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	var b Reservation
	err := r.conn.QueryRow(ctx, reservationSelect+" WHERE b.id::text = $1", id).Scan(
		&b.ID, &b.ResourceID, &b.ResourceName, &b.UserID, &b.UserName,
		&b.StartTime, &b.EndTime, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return &b, nil
}

// buildListQuery assembles the listing statement. The total count rides on
// every row as a window aggregate so the page and the count come from the
// same snapshot.
func buildListQuery(q *query.Params) (string, []any, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	builder := psql.Select(
		"b.id", "b.resource_id", "r.name", "b.user_id", "u.user_name",
		"b.start_time", "b.end_time", "b.created_at",
		"count(*) OVER() AS total_count",
	).
		From("public.reservations b").
		Join("public.resources r ON b.resource_id = r.id").
		Join("public.users u ON b.user_id = u.id")

	if q.ResourceID != "" {
		builder = builder.Where(squirrel.Expr("r.id::text = ?", q.ResourceID))
	}
	if q.ResourceName != "" {
		builder = builder.Where(squirrel.ILike{"r.name": "%" + q.ResourceName + "%"})
	}
	if q.UserID != "" {
		builder = builder.Where(squirrel.Expr("u.id::text = ?", q.UserID))
	}
	if q.UserName != "" {
		builder = builder.Where(squirrel.ILike{"u.user_name": "%" + q.UserName + "%"})
	}
	if q.StartsBefore != nil {
		builder = builder.Where(squirrel.LtOrEq{"b.start_time": *q.StartsBefore})
	}
	if q.StartsAfter != nil {
		builder = builder.Where(squirrel.GtOrEq{"b.start_time": *q.StartsAfter})
	}
	if q.EndsBefore != nil {
		builder = builder.Where(squirrel.LtOrEq{"b.end_time": *q.EndsBefore})
	}
	if q.EndsAfter != nil {
		builder = builder.Where(squirrel.GtOrEq{"b.end_time": *q.EndsAfter})
	}

	builder = builder.OrderBy(sortColumns[q.SortCol] + " " + q.SortDir)

	if q.PageSize > 0 {
		builder = builder.Limit(uint64(q.PageSize)).Offset(uint64(q.Skip))
	}

	return builder.ToSql()
}

func (r *pgxRepository) List(ctx context.Context, q *query.Params) ([]*Reservation, int, error) {
	sql, args, err := buildListQuery(q)
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var reservations []*Reservation
	var total int
	for rows.Next() {
		var b Reservation
		if err := rows.Scan(
			&b.ID, &b.ResourceID, &b.ResourceName, &b.UserID, &b.UserName,
			&b.StartTime, &b.EndTime, &b.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan reservation failed: %w", err)
		}
		reservations = append(reservations, &b)
	}
	return reservations, total, rows.Err()
}

func (r *pgxRepository) Update(ctx context.Context, b *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sql, args, err := psql.Update("public.reservations").
		Set("resource_id", b.ResourceID).
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Where(squirrel.Expr("id::text = ?", b.ID)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	ct, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update reservation failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.conn.Exec(ctx, "DELETE FROM public.reservations WHERE id::text = $1", id)
	if err != nil {
		return fmt.Errorf("delete reservation failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
