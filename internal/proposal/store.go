package proposal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists proposals. Every mutation is a conditional update on the
// expected current status ("UPDATE ... WHERE status = 'pending'"), which
// makes concurrent confirm/reject/sweep calls safe without any lock: the
// row-level check-and-set is the concurrency primitive. Conditional methods
// return (nil, nil) when no row matched, so callers can distinguish "won
// the transition" from "someone else resolved it first".
//
// Every query except MarkExecuted/MarkFailed repeats the tenant filter,
// including the bulk tier-2 paths whose candidate IDs were already
// tenant-filtered.
type Store interface {
	Create(ctx context.Context, p *Proposal) error
	GetByID(ctx context.Context, tenantID, id string) (*Proposal, error)
	ListPending(ctx context.Context, tenantID, sessionID string) ([]*Proposal, error)

	ConfirmPending(ctx context.Context, tenantID, id string, now time.Time) (*Proposal, error)
	RejectPending(ctx context.Context, tenantID, id string) (*Proposal, error)
	// ExpireOverdue lazily expires a single pending proposal whose
	// lifetime elapsed; reports whether a row transitioned.
	ExpireOverdue(ctx context.Context, tenantID, id string, now time.Time) (bool, error)

	// ConfirmTier2InWindow bulk-confirms pending T2 proposals of the
	// session created within [now-window, now]. Older pending proposals
	// are left alone for a later sweep.
	ConfirmTier2InWindow(ctx context.Context, tenantID, sessionID string, window time.Duration, now time.Time) ([]string, error)
	// RejectTier2 bulk-rejects all pending T2 proposals of the session.
	RejectTier2(ctx context.Context, tenantID, sessionID string) ([]string, error)

	// MarkExecuted and MarkFailed are terminal transitions applied after
	// the approved mutation ran. The caller already proved tenant
	// ownership when it read the proposal to execute it.
	MarkExecuted(ctx context.Context, id string, result []byte) error
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// ExpireAllOverdue is the sweep: every pending proposal past its
	// expiry, across all tenants, becomes expired. Returns the count.
	ExpireAllOverdue(ctx context.Context, now time.Time) (int64, error)
}

type pgxStore struct {
	pool *pgxpool.Pool
}

// NewPgxStore creates a proposal store backed by Postgres.
func NewPgxStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool}
}

const proposalColumns = "id, tenant_id, session_id, tool_name, operation, trust_tier, payload, preview, status, created_at, expires_at, confirmed_at, executed_at, result, error_message"

func scanProposal(row pgx.Row) (*Proposal, error) {
	var p Proposal
	if err := row.Scan(
		&p.ID, &p.TenantID, &p.SessionID, &p.ToolName, &p.Operation,
		&p.TrustTier, &p.Payload, &p.Preview, &p.Status,
		&p.CreatedAt, &p.ExpiresAt, &p.ConfirmedAt, &p.ExecutedAt,
		&p.Result, &p.ErrorMessage,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *pgxStore) Create(ctx context.Context, p *Proposal) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.agent_proposals").
		Columns("tenant_id", "session_id", "tool_name", "operation", "trust_tier",
			"payload", "preview", "status", "expires_at", "confirmed_at").
		Values(p.TenantID, p.SessionID, p.ToolName, p.Operation, p.TrustTier,
			p.Payload, p.Preview, p.Status, p.ExpiresAt, p.ConfirmedAt).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create proposal query failed: %w", err)
	}

	return s.pool.QueryRow(ctx, query, args...).Scan(&p.ID, &p.CreatedAt)
}

func (s *pgxStore) GetByID(ctx context.Context, tenantID, id string) (*Proposal, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(proposalColumns).
		From("public.agent_proposals").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get proposal query failed: %w", err)
	}

	p, err := scanProposal(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Cross-tenant lookups land here too; existence never leaks.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get proposal failed: %w", err)
	}
	return p, nil
}

func (s *pgxStore) ListPending(ctx context.Context, tenantID, sessionID string) ([]*Proposal, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	queryBuilder := psql.Select(proposalColumns).
		From("public.agent_proposals").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"status": StatusPending}).
		OrderBy("created_at ASC")

	if sessionID != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"session_id": sessionID})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending proposals query failed: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending proposals failed: %w", err)
	}
	defer rows.Close()

	var proposals []*Proposal
	for rows.Next() {
		var p Proposal
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.SessionID, &p.ToolName, &p.Operation,
			&p.TrustTier, &p.Payload, &p.Preview, &p.Status,
			&p.CreatedAt, &p.ExpiresAt, &p.ConfirmedAt, &p.ExecutedAt,
			&p.Result, &p.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan proposal failed: %w", err)
		}
		proposals = append(proposals, &p)
	}
	return proposals, nil
}

func (s *pgxStore) ConfirmPending(ctx context.Context, tenantID, id string, now time.Time) (*Proposal, error) {
	const query = `
		UPDATE public.agent_proposals
		SET status = 'confirmed', confirmed_at = $1
		WHERE id = $2 AND tenant_id = $3 AND status = 'pending' AND expires_at >= $1
		RETURNING ` + proposalColumns

	p, err := scanProposal(s.pool.QueryRow(ctx, query, now, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("confirm proposal failed: %w", err)
	}
	return p, nil
}

func (s *pgxStore) RejectPending(ctx context.Context, tenantID, id string) (*Proposal, error) {
	const query = `
		UPDATE public.agent_proposals
		SET status = 'rejected'
		WHERE id = $1 AND tenant_id = $2 AND status = 'pending'
		RETURNING ` + proposalColumns

	p, err := scanProposal(s.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reject proposal failed: %w", err)
	}
	return p, nil
}

func (s *pgxStore) ExpireOverdue(ctx context.Context, tenantID, id string, now time.Time) (bool, error) {
	const query = `
		UPDATE public.agent_proposals
		SET status = 'expired'
		WHERE id = $1 AND tenant_id = $2 AND status = 'pending' AND expires_at < $3
	`

	ct, err := s.pool.Exec(ctx, query, id, tenantID, now)
	if err != nil {
		return false, fmt.Errorf("expire proposal failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *pgxStore) ConfirmTier2InWindow(ctx context.Context, tenantID, sessionID string, window time.Duration, now time.Time) ([]string, error) {
	const query = `
		UPDATE public.agent_proposals
		SET status = 'confirmed', confirmed_at = $1
		WHERE tenant_id = $2 AND session_id = $3 AND trust_tier = 'T2'
		  AND status = 'pending' AND expires_at >= $1 AND created_at >= $4
		RETURNING id
	`

	cutoff := now.Add(-window)
	rows, err := s.pool.Query(ctx, query, now, tenantID, sessionID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("soft-confirm tier-2 proposals failed: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

func (s *pgxStore) RejectTier2(ctx context.Context, tenantID, sessionID string) ([]string, error) {
	const query = `
		UPDATE public.agent_proposals
		SET status = 'rejected'
		WHERE tenant_id = $1 AND session_id = $2 AND trust_tier = 'T2' AND status = 'pending'
		RETURNING id
	`

	rows, err := s.pool.Query(ctx, query, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reject tier-2 proposals failed: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan proposal id failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *pgxStore) MarkExecuted(ctx context.Context, id string, result []byte) error {
	const query = `
		UPDATE public.agent_proposals
		SET status = 'executed', executed_at = now(), result = $1
		WHERE id = $2 AND status = 'confirmed'
	`

	ct, err := s.pool.Exec(ctx, query, result, id)
	if err != nil {
		return fmt.Errorf("mark proposal executed failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgxStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	const query = `
		UPDATE public.agent_proposals
		SET status = 'failed', executed_at = now(), error_message = $1
		WHERE id = $2 AND status = 'confirmed'
	`

	ct, err := s.pool.Exec(ctx, query, errMsg, id)
	if err != nil {
		return fmt.Errorf("mark proposal failed failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgxStore) ExpireAllOverdue(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE public.agent_proposals
		SET status = 'expired'
		WHERE status = 'pending' AND expires_at < $1
	`

	ct, err := s.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue proposals failed: %w", err)
	}
	return ct.RowsAffected(), nil
}
