package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines methods for accessing catalog data. Every query is
// tenant-scoped.
type Repository interface {
	Create(ctx context.Context, o *Offering) error
	GetByID(ctx context.Context, tenantID, id string) (*Offering, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Offering, int, error)
	Update(ctx context.Context, o *Offering) error

	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, tenantID, id string) (*Category, error)
	ListCategories(ctx context.Context, tenantID string) ([]*Category, error)
	DeleteCategory(ctx context.Context, tenantID, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new catalog repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const offeringColumns = "id, tenant_id, category_id, name, description, price_cents, currency, duration_minutes, booking_mode, is_active, created_at, updated_at"

func (r *pgxRepository) Create(ctx context.Context, o *Offering) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.offerings").
		Columns("tenant_id", "category_id", "name", "description", "price_cents", "currency", "duration_minutes", "booking_mode", "is_active").
		Values(o.TenantID, o.CategoryID, o.Name, o.Description, o.PriceCents, o.Currency, o.DurationMinutes, o.BookingMode, o.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create offering query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Offering, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(offeringColumns).
		From("public.offerings").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get offering query failed: %w", err)
	}

	var o Offering
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&o.ID, &o.TenantID, &o.CategoryID, &o.Name, &o.Description,
		&o.PriceCents, &o.Currency, &o.DurationMinutes, &o.BookingMode,
		&o.IsActive, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get offering failed: %w", err)
	}
	return &o, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, filter Filter) ([]*Offering, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	queryBuilder := psql.Select(offeringColumns+", count(*) OVER() AS total_count").
		From("public.offerings").
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.CategoryID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"category_id": filter.CategoryID})
	}
	if filter.Active != nil {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"is_active": *filter.Active})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBuilder = queryBuilder.OrderBy("name ASC").Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list offerings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offerings failed: %w", err)
	}
	defer rows.Close()

	var offerings []*Offering
	var total int
	for rows.Next() {
		var o Offering
		if err := rows.Scan(
			&o.ID, &o.TenantID, &o.CategoryID, &o.Name, &o.Description,
			&o.PriceCents, &o.Currency, &o.DurationMinutes, &o.BookingMode,
			&o.IsActive, &o.CreatedAt, &o.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan offering failed: %w", err)
		}
		offerings = append(offerings, &o)
	}

	return offerings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, o *Offering) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.offerings").
		Set("category_id", o.CategoryID).
		Set("name", o.Name).
		Set("description", o.Description).
		Set("price_cents", o.PriceCents).
		Set("currency", o.Currency).
		Set("duration_minutes", o.DurationMinutes).
		Set("booking_mode", o.BookingMode).
		Set("is_active", o.IsActive).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": o.ID}).
		Where(squirrel.Eq{"tenant_id": o.TenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update offering query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update offering failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) CreateCategory(ctx context.Context, c *Category) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.catalog_categories").
		Columns("tenant_id", "name").
		Values(c.TenantID, c.Name).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create category query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt)
}

func (r *pgxRepository) GetCategory(ctx context.Context, tenantID, id string) (*Category, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "tenant_id", "name", "created_at").
		From("public.catalog_categories").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get category query failed: %w", err)
	}

	var c Category
	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.TenantID, &c.Name, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) ListCategories(ctx context.Context, tenantID string) ([]*Category, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "tenant_id", "name", "created_at").
		From("public.catalog_categories").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list categories query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories failed: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category failed: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, nil
}

func (r *pgxRepository) DeleteCategory(ctx context.Context, tenantID, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.catalog_categories").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete category query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete category failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
