package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, s *Section) error
	GetByID(ctx context.Context, tenantID, id string) (*Section, error)
	GetBySlug(ctx context.Context, tenantID, slug string) (*Section, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Section, int, error)
	Update(ctx context.Context, s *Section) error
	Delete(ctx context.Context, tenantID, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const sectionColumns = "id, tenant_id, slug, title, body, position, published, created_at, updated_at"

func (r *pgxRepository) Create(ctx context.Context, s *Section) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.storefront_sections").
		Columns("tenant_id", "slug", "title", "body", "position", "published").
		Values(s.TenantID, s.Slug, s.Title, s.Body, s.Position, s.Published).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create section query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlugTaken
		}
		return fmt.Errorf("create section failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Section, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "id": id})
}

func (r *pgxRepository) GetBySlug(ctx context.Context, tenantID, slug string) (*Section, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "slug": slug})
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Eq) (*Section, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(sectionColumns).
		From("public.storefront_sections").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get section query failed: %w", err)
	}

	row := r.pool.QueryRow(ctx, query, args...)

	var s Section
	if err := row.Scan(
		&s.ID, &s.TenantID, &s.Slug, &s.Title, &s.Body,
		&s.Position, &s.Published, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get section failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, filter Filter) ([]*Section, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(sectionColumns + ", count(*) OVER() as total_count").
		From("public.storefront_sections").
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.PublishedOnly {
		query = query.Where(squirrel.Eq{"published": true})
	}

	query = query.OrderBy("position ASC, created_at ASC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list sections query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sections failed: %w", err)
	}
	defer rows.Close()

	var result []*Section
	var total int

	for rows.Next() {
		var s Section
		if err := rows.Scan(
			&s.ID, &s.TenantID, &s.Slug, &s.Title, &s.Body,
			&s.Position, &s.Published, &s.CreatedAt, &s.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan section failed: %w", err)
		}
		result = append(result, &s)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, s *Section) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.storefront_sections").
		Set("slug", s.Slug).
		Set("title", s.Title).
		Set("body", s.Body).
		Set("position", s.Position).
		Set("published", s.Published).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"tenant_id": s.TenantID, "id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update section query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlugTaken
		}
		return fmt.Errorf("update section failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, tenantID, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.storefront_sections").
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete section query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete section failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
