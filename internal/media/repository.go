package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, m *Media) error
	GetByID(ctx context.Context, tenantID, id string) (*Media, error)
	List(ctx context.Context, tenantID string, page, pageSize int) ([]*Media, int, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const mediaColumns = "id, tenant_id, uploaded_by, filename, storage_path, thumbnail_path, content_type, size, created_at"

func (r *pgxRepository) Create(ctx context.Context, m *Media) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.media").
		Columns("id", "tenant_id", "uploaded_by", "filename", "storage_path", "thumbnail_path", "content_type", "size", "created_at").
		Values(m.ID, m.TenantID, m.UploadedBy, m.Filename, m.StoragePath, m.ThumbnailPath, m.ContentType, m.Size, m.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create media query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("create media record failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, tenantID, id string) (*Media, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(mediaColumns).
		From("public.media").
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get media query failed: %w", err)
	}

	m, err := scanMedia(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get media failed: %w", err)
	}
	return m, nil
}

func (r *pgxRepository) List(ctx context.Context, tenantID string, page, pageSize int) ([]*Media, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(mediaColumns + ", count(*) OVER() as total_count").
		From("public.media").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list media query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list media failed: %w", err)
	}
	defer rows.Close()

	var result []*Media
	var total int

	for rows.Next() {
		var m Media
		var thumb sql.NullString
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.UploadedBy, &m.Filename, &m.StoragePath,
			&thumb, &m.ContentType, &m.Size, &m.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan media failed: %w", err)
		}
		if thumb.Valid {
			m.ThumbnailPath = &thumb.String
		}
		result = append(result, &m)
	}

	return result, total, nil
}

func (r *pgxRepository) Delete(ctx context.Context, tenantID, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.media").
		Where(squirrel.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete media query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete media failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMedia(row pgx.Row) (*Media, error) {
	var m Media
	var thumb sql.NullString
	if err := row.Scan(
		&m.ID, &m.TenantID, &m.UploadedBy, &m.Filename, &m.StoragePath,
		&thumb, &m.ContentType, &m.Size, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	if thumb.Valid {
		m.ThumbnailPath = &thumb.String
	}
	return &m, nil
}
