package proposal

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tidebook/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound    = apperror.New(http.StatusNotFound, "proposal not found")
	ErrInvalidTier = apperror.New(http.StatusBadRequest, "invalid trust tier")
)

// TrustTier classifies how much confirmation a proposed write needs before
// it may execute.
type TrustTier string

const (
	// TierLow executes immediately; the proposal is born confirmed.
	TierLow TrustTier = "T1"
	// TierMedium auto-confirms on the session's next message unless the
	// user objects first (soft confirm).
	TierMedium TrustTier = "T2"
	// TierHigh requires an explicit confirmation call (hard confirm).
	TierHigh TrustTier = "T3"
)

// ValidTier reports whether t is a known trust tier.
func ValidTier(t TrustTier) bool {
	return t == TierLow || t == TierMedium || t == TierHigh
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusExecuted  Status = "executed"
	StatusFailed    Status = "failed"
)

// Proposal is a single write action an agent wants to perform on a tenant's
// behalf. Once created, the payload is the sole source of truth for the
// mutation; it is never re-derived from conversation state, so injected
// instructions cannot alter an already-approved action.
//
// Status transitions are monotonic:
//
//	pending   -> confirmed | rejected | expired
//	confirmed -> executed | failed
//
// rejected, expired, executed and failed are terminal. Every store mutation
// is a conditional update on the expected current status, so the row-level
// check-and-set is the concurrency primitive.
type Proposal struct {
	ID        string
	TenantID  string
	SessionID string
	ToolName  string
	Operation string // human-readable description of the write
	TrustTier TrustTier
	Payload   json.RawMessage
	Preview   string // human-readable summary shown for confirmation
	Status    Status

	CreatedAt   time.Time
	ExpiresAt   time.Time
	ConfirmedAt *time.Time
	ExecutedAt  *time.Time

	Result       json.RawMessage
	ErrorMessage *string
}

// Expired reports whether the proposal's lifetime has elapsed at the given
// instant. The lazy check in ConfirmProposal and the background sweep must
// agree on this single test.
func (p *Proposal) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
