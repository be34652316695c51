package tenant

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

// Repository defines methods for accessing tenant data.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context, filter Filter) ([]*Tenant, int, error)
	Update(ctx context.Context, t *Tenant) error

	GetMember(ctx context.Context, tenantID, userID string) (*Member, error)
	AddMember(ctx context.Context, tenantID, userID, role string) error
	RemoveMember(ctx context.Context, tenantID, userID string) error
	UpdateMemberRole(ctx context.Context, tenantID, userID, role string) error
	ListMembers(ctx context.Context, tenantID string, filter MemberFilter) ([]*Member, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new tenant repository.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, t *Tenant) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.tenants").
		Columns("name", "is_active").
		Values(t.Name, t.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create tenant query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "is_active", "created_at").
		From("public.tenants").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get tenant query failed: %w", err)
	}

	var t Tenant
	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tenant failed: %w", err)
	}
	return &t, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Tenant, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	queryBuilder := psql.Select("id", "name", "is_active", "created_at", "count(*) OVER() AS total_count").
		From("public.tenants").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("created_at DESC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBuilder = queryBuilder.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list tenants query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants failed: %w", err)
	}
	defer rows.Close()

	var tenants []*Tenant
	var total int
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan tenant failed: %w", err)
		}
		tenants = append(tenants, &t)
	}

	return tenants, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, t *Tenant) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.tenants").
		Set("name", t.Name).
		Set("is_active", t.IsActive).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update tenant query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update tenant failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) GetMember(ctx context.Context, tenantID, userID string) (*Member, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("p.user_id", "u.email", "u.display_name", "p.role").
		From("public.tenant_permissions p").
		Join("public.users u ON p.user_id = u.id").
		Where(squirrel.Eq{"p.tenant_id": tenantID}).
		Where(squirrel.Eq{"p.user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get member query failed: %w", err)
	}

	var m Member
	if err := r.pool.QueryRow(ctx, query, args...).
		Scan(&m.UserID, &m.Email, &m.DisplayName, &m.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberMissing
		}
		return nil, fmt.Errorf("get member failed: %w", err)
	}
	return &m, nil
}

func (r *pgxRepository) AddMember(ctx context.Context, tenantID, userID, role string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.tenant_permissions").
		Columns("tenant_id", "user_id", "role").
		Values(tenantID, userID, role).
		ToSql()
	if err != nil {
		return fmt.Errorf("build add member query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyMember
		}
		return fmt.Errorf("add member failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) RemoveMember(ctx context.Context, tenantID, userID string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.tenant_permissions").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build remove member query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove member failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrMemberMissing
	}
	return nil
}

func (r *pgxRepository) UpdateMemberRole(ctx context.Context, tenantID, userID, role string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.tenant_permissions").
		Set("role", role).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update member role query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update member role failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrMemberMissing
	}
	return nil
}

func (r *pgxRepository) ListMembers(ctx context.Context, tenantID string, filter MemberFilter) ([]*Member, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	queryBuilder := psql.Select("p.user_id", "u.email", "u.display_name", "p.role", "count(*) OVER() AS total_count").
		From("public.tenant_permissions p").
		Join("public.users u ON p.user_id = u.id").
		Where(squirrel.Eq{"p.tenant_id": tenantID}).
		OrderBy("p.role ASC", "u.email ASC")

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	queryBuilder = queryBuilder.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list members query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list members failed: %w", err)
	}
	defer rows.Close()

	var members []*Member
	var total int
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.DisplayName, &m.Role, &total); err != nil {
			return nil, 0, fmt.Errorf("scan member failed: %w", err)
		}
		members = append(members, &m)
	}

	return members, total, nil
}
