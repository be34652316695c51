package proposal

import (
	"context"
	"encoding/json"
	"time"
)

// CreateRequest holds fields for creating a proposal.
type CreateRequest struct {
	SessionID string
	ToolName  string
	Operation string
	TrustTier TrustTier
	Payload   json.RawMessage
	Preview   string
}

// CreateResult is the tier-aware outcome of creating a proposal.
type CreateResult struct {
	Proposal *Proposal
	// RequiresApproval is true for T2 and T3: the caller must not execute
	// yet. T1 proposals are born confirmed and execute right away.
	RequiresApproval bool
	// AutoConfirms is true for T2: the proposal confirms on the session's
	// next message unless the user objects first.
	AutoConfirms bool
}

// SoftConfirmResult reports what a soft-confirm sweep did.
type SoftConfirmResult struct {
	// Rejected is true when the message classified as rejection intent;
	// RejectedIDs then holds every pending T2 proposal of the session.
	Rejected     bool
	RejectedIDs  []string
	ConfirmedIDs []string
}

// Service is the trust-tier proposal state machine. All methods that act on
// behalf of a session take tenantID as an explicit first argument sourced
// from the authenticated session, never from a payload field.
type Service interface {
	CreateProposal(ctx context.Context, tenantID string, req CreateRequest) (*CreateResult, error)
	GetProposal(ctx context.Context, tenantID, id string) (*Proposal, error)
	GetPendingProposals(ctx context.Context, tenantID, sessionID string) ([]*Proposal, error)

	// ConfirmProposal transitions a pending proposal to confirmed and
	// returns it. It returns (nil, nil) without mutating anything when
	// the proposal is not pending for this tenant; a pending proposal
	// past its expiry is lazily transitioned to expired instead, so a
	// confirm attempt racing the sweep still observes a terminal state.
	ConfirmProposal(ctx context.Context, tenantID, id string) (*Proposal, error)
	// RejectProposal is the symmetric pending -> rejected transition.
	RejectProposal(ctx context.Context, tenantID, id string) (*Proposal, error)

	// SoftConfirmPendingT2 evaluates the session's next inbound message.
	// Rejection intent bulk-rejects every pending T2 proposal in the
	// session; otherwise pending T2 proposals created within the
	// agent type's sliding window are bulk-confirmed. Older ones stay
	// pending for the next message; staleness alone is not rejection.
	SoftConfirmPendingT2(ctx context.Context, tenantID, sessionID, userMessage, agentType string) (*SoftConfirmResult, error)

	MarkExecuted(ctx context.Context, id string, result json.RawMessage) error
	MarkFailed(ctx context.Context, id string, execErr string) error

	// CleanupExpired is invoked by the periodic sweeper; it is idempotent
	// and safe to run concurrently with itself and with confirm/reject.
	CleanupExpired(ctx context.Context) (int64, error)
}

// Config holds the protocol's timing knobs. Windows are configuration, not
// protocol: a slow advisory flow warrants a longer soft-confirm window than
// a fast transactional one.
type Config struct {
	TTL           time.Duration
	DefaultWindow time.Duration
	Windows       map[string]time.Duration // by agent type
}

type service struct {
	store      Store
	classifier *Classifier
	cfg        Config

	now func() time.Time
}

// NewService creates the proposal service.
func NewService(store Store, classifier *Classifier, cfg Config) Service {
	return &service{
		store:      store,
		classifier: classifier,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) CreateProposal(ctx context.Context, tenantID string, req CreateRequest) (*CreateResult, error) {
	if !ValidTier(req.TrustTier) {
		return nil, ErrInvalidTier
	}

	now := s.now()
	p := &Proposal{
		TenantID:  tenantID,
		SessionID: req.SessionID,
		ToolName:  req.ToolName,
		Operation: req.Operation,
		TrustTier: req.TrustTier,
		Payload:   req.Payload,
		Preview:   req.Preview,
		Status:    StatusPending,
		ExpiresAt: now.Add(s.cfg.TTL), // fixed TTL regardless of tier
	}
	if req.TrustTier == TierLow {
		p.Status = StatusConfirmed
		p.ConfirmedAt = &now
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}

	return &CreateResult{
		Proposal:         p,
		RequiresApproval: req.TrustTier != TierLow,
		AutoConfirms:     req.TrustTier == TierMedium,
	}, nil
}

func (s *service) GetProposal(ctx context.Context, tenantID, id string) (*Proposal, error) {
	return s.store.GetByID(ctx, tenantID, id)
}

func (s *service) GetPendingProposals(ctx context.Context, tenantID, sessionID string) ([]*Proposal, error) {
	return s.store.ListPending(ctx, tenantID, sessionID)
}

func (s *service) ConfirmProposal(ctx context.Context, tenantID, id string) (*Proposal, error) {
	now := s.now()

	p, err := s.store.ConfirmPending(ctx, tenantID, id, now)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	// The check-and-set missed: not pending, not this tenant's, or past
	// expiry. Lazily expire so the expiry outcome does not depend on
	// whether the background sweep ran yet.
	if _, err := s.store.ExpireOverdue(ctx, tenantID, id, now); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *service) RejectProposal(ctx context.Context, tenantID, id string) (*Proposal, error) {
	return s.store.RejectPending(ctx, tenantID, id)
}

func (s *service) SoftConfirmPendingT2(ctx context.Context, tenantID, sessionID, userMessage, agentType string) (*SoftConfirmResult, error) {
	if s.classifier.Classify(userMessage) {
		rejected, err := s.store.RejectTier2(ctx, tenantID, sessionID)
		if err != nil {
			return nil, err
		}
		return &SoftConfirmResult{Rejected: true, RejectedIDs: rejected}, nil
	}

	window := s.cfg.DefaultWindow
	if w, ok := s.cfg.Windows[agentType]; ok {
		window = w
	}

	// The window is evaluated freshly on every call, never memoized, so a
	// proposal outside this sweep's window can still confirm on a later
	// message.
	confirmed, err := s.store.ConfirmTier2InWindow(ctx, tenantID, sessionID, window, s.now())
	if err != nil {
		return nil, err
	}
	return &SoftConfirmResult{ConfirmedIDs: confirmed}, nil
}

func (s *service) MarkExecuted(ctx context.Context, id string, result json.RawMessage) error {
	return s.store.MarkExecuted(ctx, id, result)
}

func (s *service) MarkFailed(ctx context.Context, id string, execErr string) error {
	return s.store.MarkFailed(ctx, id, execErr)
}

func (s *service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.ExpireAllOverdue(ctx, s.now())
}
