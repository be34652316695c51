package booking

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

	"github.com/tidebook/booking-backend/internal/lock"
)

// Repository persists bookings. Create and Reschedule run the lock-then-
// check-then-mutate protocol: an advisory lock on the slot key serializes
// the occupancy check and the write, and the partial unique index on the
// slot identity is the backstop should the lock ever be bypassed. Every
// query is tenant-scoped.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, tenantID, id string) (*Booking, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Booking, int, error)
	// Reschedule moves the booking to a new slot. The lock is keyed by the
	// new slot; vacating the old one cannot conflict with anything.
	Reschedule(ctx context.Context, b *Booking) error
	// TransitionStatus atomically moves the booking from one status to
	// another. It returns ErrInvalidStatus if the booking is no longer in
	// the expected status (the check-and-set is the concurrency primitive).
	TransitionStatus(ctx context.Context, tenantID, id string, from, to Status) (*Booking, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool        *pgxpool.Pool
	locks       lock.Manager
	lockTimeout time.Duration
}

// NewPgxRepository creates a booking repository. locks must be the pgx
// advisory lock manager in production so lock release is bound to the
// transaction carrying the insert.
func NewPgxRepository(pool *pgxpool.Pool, locks lock.Manager, lockTimeout time.Duration) Repository {
	return &pgxRepository{pool: pool, locks: locks, lockTimeout: lockTimeout}
}

// q returns the lock-holding transaction when running inside WithLock, or
// the pool otherwise.
func (r *pgxRepository) q(ctx context.Context) querier {
	if tx, ok := lock.TxFrom(ctx); ok {
		return tx
	}
	return r.pool
}

const bookingColumns = "id, tenant_id, offering_id, customer_name, customer_email, customer_phone, booking_date, start_time, end_time, total_cents, currency, status, created_at, updated_at"

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.TenantID, &b.OfferingID,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.BookingDate, &b.StartTime, &b.EndTime,
		&b.TotalCents, &b.Currency, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	return r.locks.WithLock(ctx, b.TenantID, b.SlotKey(), r.lockTimeout, func(ctx context.Context) error {
		occupied, err := r.slotOccupied(ctx, b, "")
		if err != nil {
			return err
		}
		if occupied {
			return ErrSlotConflict
		}
		return r.insert(ctx, b)
	})
}

func (r *pgxRepository) insert(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("tenant_id", "offering_id", "customer_name", "customer_email", "customer_phone",
			"booking_date", "start_time", "end_time", "total_cents", "currency", "status").
		Values(b.TenantID, b.OfferingID, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
			b.BookingDate, b.StartTime, b.EndTime, b.TotalCents, b.Currency, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.q(ctx).QueryRow(ctx, query, args...).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// The unique index caught what the lock should have; same
			// outcome for the caller either way.
			return ErrSlotConflict
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

// slotOccupied reports whether any active booking occupies b's slot.
// Date-mode bookings conflict on exact date equality; slot-mode bookings
// conflict on interval intersection, not just identical start times.
func (r *pgxRepository) slotOccupied(ctx context.Context, b *Booking, excludeID string) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sub := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"tenant_id": b.TenantID}).
		Where(squirrel.Eq{"offering_id": b.OfferingID}).
		Where(squirrel.NotEq{"status": []Status{StatusCanceled, StatusRefunded}})

	if b.BookingDate != nil {
		sub = sub.Where(squirrel.Eq{"booking_date": b.BookingDate})
	} else {
		sub = sub.
			Where(squirrel.Lt{"start_time": b.EndTime}).
			Where(squirrel.Gt{"end_time": b.StartTime})
	}
	if excludeID != "" {
		sub = sub.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := sub.ToSql()
	if err != nil {
		return false, fmt.Errorf("build slot occupancy query failed: %w", err)
	}

	var exists bool
	if err := r.q(ctx).QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot occupancy failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns).
		From("public.bookings").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(r.q(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A booking belonging to another tenant is reported exactly
			// like a missing one.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, filter Filter) ([]*Booking, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	queryBuilder := psql.Select(bookingColumns+", count(*) OVER() AS total_count").
		From("public.bookings").
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.OfferingID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"offering_id": filter.OfferingID})
	}
	if filter.Status != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"status": filter.Status})
	}
	// Range filters apply to whichever slot representation the row has.
	if filter.From != nil {
		queryBuilder = queryBuilder.Where(squirrel.Or{
			squirrel.GtOrEq{"booking_date": filter.From},
			squirrel.GtOrEq{"start_time": filter.From},
		})
	}
	if filter.To != nil {
		queryBuilder = queryBuilder.Where(squirrel.Or{
			squirrel.LtOrEq{"booking_date": filter.To},
			squirrel.LtOrEq{"start_time": filter.To},
		})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBuilder = queryBuilder.
		OrderBy("created_at DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.q(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.TenantID, &b.OfferingID,
			&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
			&b.BookingDate, &b.StartTime, &b.EndTime,
			&b.TotalCents, &b.Currency, &b.Status,
			&b.CreatedAt, &b.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Reschedule(ctx context.Context, b *Booking) error {
	return r.locks.WithLock(ctx, b.TenantID, b.SlotKey(), r.lockTimeout, func(ctx context.Context) error {
		occupied, err := r.slotOccupied(ctx, b, b.ID)
		if err != nil {
			return err
		}
		if occupied {
			return ErrSlotConflict
		}

		psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
		query, args, err := psql.Update("public.bookings").
			Set("booking_date", b.BookingDate).
			Set("start_time", b.StartTime).
			Set("end_time", b.EndTime).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": b.ID}).
			Where(squirrel.Eq{"tenant_id": b.TenantID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build reschedule booking query failed: %w", err)
		}

		ct, err := r.q(ctx).Exec(ctx, query, args...)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return ErrSlotConflict
			}
			return fmt.Errorf("reschedule booking failed: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *pgxRepository) TransitionStatus(ctx context.Context, tenantID, id string, from, to Status) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"status": from}).
		Suffix("RETURNING " + bookingColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transition status query failed: %w", err)
	}

	b, err := scanBooking(r.q(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the booking is gone (or another tenant's), or a
			// concurrent transition won the check-and-set.
			if _, getErr := r.GetByID(ctx, tenantID, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrInvalidStatus
		}
		return nil, fmt.Errorf("transition booking status failed: %w", err)
	}
	return b, nil
}
