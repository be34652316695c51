package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store with the same conditional-update semantics
// as the Postgres implementation.
type memStore struct {
	mu    sync.Mutex
	seq   int
	items map[string]*Proposal
	now   func() time.Time
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{items: make(map[string]*Proposal), now: now}
}

func (m *memStore) Create(ctx context.Context, p *Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = fmt.Sprintf("prop-%d", m.seq)
	p.CreatedAt = m.now()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, tenantID, id string) (*Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListPending(ctx context.Context, tenantID, sessionID string) ([]*Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Proposal
	for _, p := range m.items {
		if p.TenantID == tenantID && p.Status == StatusPending &&
			(sessionID == "" || p.SessionID == sessionID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) ConfirmPending(ctx context.Context, tenantID, id string, now time.Time) (*Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.TenantID != tenantID || p.Status != StatusPending || p.ExpiresAt.Before(now) {
		return nil, nil
	}
	p.Status = StatusConfirmed
	p.ConfirmedAt = &now
	cp := *p
	return &cp, nil
}

func (m *memStore) RejectPending(ctx context.Context, tenantID, id string) (*Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.TenantID != tenantID || p.Status != StatusPending {
		return nil, nil
	}
	p.Status = StatusRejected
	cp := *p
	return &cp, nil
}

func (m *memStore) ExpireOverdue(ctx context.Context, tenantID, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.TenantID != tenantID || p.Status != StatusPending || !p.ExpiresAt.Before(now) {
		return false, nil
	}
	p.Status = StatusExpired
	return true, nil
}

func (m *memStore) ConfirmTier2InWindow(ctx context.Context, tenantID, sessionID string, window time.Duration, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-window)
	var ids []string
	for _, p := range m.items {
		if p.TenantID == tenantID && p.SessionID == sessionID &&
			p.TrustTier == TierMedium && p.Status == StatusPending &&
			!p.ExpiresAt.Before(now) && !p.CreatedAt.Before(cutoff) {
			p.Status = StatusConfirmed
			t := now
			p.ConfirmedAt = &t
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (m *memStore) RejectTier2(ctx context.Context, tenantID, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, p := range m.items {
		if p.TenantID == tenantID && p.SessionID == sessionID &&
			p.TrustTier == TierMedium && p.Status == StatusPending {
			p.Status = StatusRejected
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (m *memStore) MarkExecuted(ctx context.Context, id string, result []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.Status != StatusConfirmed {
		return ErrNotFound
	}
	p.Status = StatusExecuted
	now := m.now()
	p.ExecutedAt = &now
	p.Result = result
	return nil
}

func (m *memStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.Status != StatusConfirmed {
		return ErrNotFound
	}
	p.Status = StatusFailed
	now := m.now()
	p.ExecutedAt = &now
	p.ErrorMessage = &errMsg
	return nil
}

func (m *memStore) ExpireAllOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.items {
		if p.Status == StatusPending && p.ExpiresAt.Before(now) {
			p.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

// newTestService returns a service whose clock the test controls.
func newTestService(t *testing.T) (Service, *memStore, *time.Time) {
	t.Helper()
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store := newMemStore(clock)
	svc := NewService(store, NewClassifier(), Config{
		TTL:           30 * time.Minute,
		DefaultWindow: 2 * time.Minute,
		Windows: map[string]time.Duration{
			"chat":    2 * time.Minute,
			"advisor": 10 * time.Minute,
		},
	})
	svc.(*service).now = clock
	return svc, store, &current
}

func createTestProposal(t *testing.T, svc Service, tenantID, sessionID string, tier TrustTier) *Proposal {
	t.Helper()
	res, err := svc.CreateProposal(context.Background(), tenantID, CreateRequest{
		SessionID: sessionID,
		ToolName:  "update_offering_price",
		Operation: "Change the price of Deep Tissue Massage to $120",
		TrustTier: tier,
		Payload:   json.RawMessage(`{"offering_id":"off-1","price_cents":12000}`),
		Preview:   "Deep Tissue Massage: $95 -> $120",
	})
	require.NoError(t, err)
	return res.Proposal
}

func TestCreateProposalTiers(t *testing.T) {
	svc, _, now := newTestService(t)
	ctx := context.Background()

	t.Run("T1 is born confirmed", func(t *testing.T) {
		res, err := svc.CreateProposal(ctx, "tenant-a", CreateRequest{
			SessionID: "sess-1", ToolName: "update_storefront_section",
			TrustTier: TierLow, Payload: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, res.Proposal.Status)
		assert.False(t, res.RequiresApproval)
		assert.False(t, res.AutoConfirms)
		require.NotNil(t, res.Proposal.ConfirmedAt)
	})

	t.Run("T2 is pending and auto-confirms", func(t *testing.T) {
		res, err := svc.CreateProposal(ctx, "tenant-a", CreateRequest{
			SessionID: "sess-1", ToolName: "update_offering_price",
			TrustTier: TierMedium, Payload: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, res.Proposal.Status)
		assert.True(t, res.RequiresApproval)
		assert.True(t, res.AutoConfirms)
	})

	t.Run("T3 is pending and needs a hard confirm", func(t *testing.T) {
		res, err := svc.CreateProposal(ctx, "tenant-a", CreateRequest{
			SessionID: "sess-1", ToolName: "cancel_booking",
			TrustTier: TierHigh, Payload: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, res.Proposal.Status)
		assert.True(t, res.RequiresApproval)
		assert.False(t, res.AutoConfirms)
	})

	t.Run("TTL is tier-independent", func(t *testing.T) {
		for _, tier := range []TrustTier{TierLow, TierMedium, TierHigh} {
			res, err := svc.CreateProposal(ctx, "tenant-a", CreateRequest{
				SessionID: "sess-1", ToolName: "t", TrustTier: tier,
			})
			require.NoError(t, err)
			assert.Equal(t, now.Add(30*time.Minute), res.Proposal.ExpiresAt)
		}
	})

	t.Run("unknown tier is rejected", func(t *testing.T) {
		_, err := svc.CreateProposal(ctx, "tenant-a", CreateRequest{TrustTier: "T9"})
		assert.ErrorIs(t, err, ErrInvalidTier)
	})
}

func TestConfirmProposal(t *testing.T) {
	ctx := context.Background()

	t.Run("pending confirms and stamps confirmedAt", func(t *testing.T) {
		svc, _, now := newTestService(t)
		p := createTestProposal(t, svc, "tenant-a", "sess-1", TierHigh)

		got, err := svc.ConfirmProposal(ctx, "tenant-a", p.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, StatusConfirmed, got.Status)
		require.NotNil(t, got.ConfirmedAt)
		assert.Equal(t, *now, *got.ConfirmedAt)
	})

	t.Run("wrong tenant is a silent no-op", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		p := createTestProposal(t, svc, "tenant-a", "sess-1", TierHigh)

		got, err := svc.ConfirmProposal(ctx, "tenant-b", p.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		// Nothing mutated for the real owner.
		still, err := svc.GetProposal(ctx, "tenant-a", p.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, still.Status)
	})

	t.Run("expired proposal is never confirmable", func(t *testing.T) {
		svc, _, current := newTestService(t)
		p := createTestProposal(t, svc, "tenant-a", "sess-1", TierHigh)

		*current = current.Add(31 * time.Minute)

		got, err := svc.ConfirmProposal(ctx, "tenant-a", p.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		// The lazy check moved it to expired without any sweep running.
		after, err := svc.GetProposal(ctx, "tenant-a", p.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusExpired, after.Status)
	})

	t.Run("non-pending statuses are untouched", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		p := createTestProposal(t, svc, "tenant-a", "sess-1", TierHigh)

		_, err := svc.RejectProposal(ctx, "tenant-a", p.ID)
		require.NoError(t, err)

		got, err := svc.ConfirmProposal(ctx, "tenant-a", p.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		after, err := svc.GetProposal(ctx, "tenant-a", p.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, after.Status)
	})
}

func TestRejectProposal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)

	got, err := svc.RejectProposal(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StatusRejected, got.Status)

	// Rejecting again is a no-op.
	got, err = svc.RejectProposal(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProposalMonotonicity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createTestProposal(t, svc, "tenant-a", "sess-1", TierHigh)

	confirmed, err := svc.ConfirmProposal(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	require.NotNil(t, confirmed)

	// confirmed can only move to executed or failed; reject is a no-op now.
	rejected, err := svc.RejectProposal(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	assert.Nil(t, rejected)

	require.NoError(t, svc.MarkExecuted(ctx, p.ID, json.RawMessage(`{"ok":true}`)))

	// executed is terminal: a second terminal mark fails.
	assert.Error(t, svc.MarkExecuted(ctx, p.ID, nil))
	assert.Error(t, svc.MarkFailed(ctx, p.ID, "nope"))

	final, err := svc.GetProposal(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, final.Status)
}

func TestSoftConfirmWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("window boundary is inclusive at exactly now-window", func(t *testing.T) {
		svc, _, current := newTestService(t)

		onBoundary := createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)
		*current = current.Add(2 * time.Minute)

		res, err := svc.SoftConfirmPendingT2(ctx, "tenant-a", "sess-1", "sounds good", "chat")
		require.NoError(t, err)
		assert.False(t, res.Rejected)
		assert.Equal(t, []string{onBoundary.ID}, res.ConfirmedIDs)
	})

	t.Run("one millisecond past the window is excluded but stays pending", func(t *testing.T) {
		svc, _, current := newTestService(t)

		stale := createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)
		*current = current.Add(2*time.Minute + time.Millisecond)

		res, err := svc.SoftConfirmPendingT2(ctx, "tenant-a", "sess-1", "sounds good", "chat")
		require.NoError(t, err)
		assert.Empty(t, res.ConfirmedIDs)

		// Staleness alone is not rejection.
		after, err := svc.GetProposal(ctx, "tenant-a", stale.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, after.Status)
	})

	t.Run("per-agent-type windows", func(t *testing.T) {
		svc, _, current := newTestService(t)

		p := createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)
		*current = current.Add(5 * time.Minute)

		// 5 minutes old: outside the chat window, inside the advisor one.
		res, err := svc.SoftConfirmPendingT2(ctx, "tenant-a", "sess-1", "ok", "chat")
		require.NoError(t, err)
		assert.Empty(t, res.ConfirmedIDs)

		res, err = svc.SoftConfirmPendingT2(ctx, "tenant-a", "sess-1", "ok", "advisor")
		require.NoError(t, err)
		assert.Equal(t, []string{p.ID}, res.ConfirmedIDs)
	})

	t.Run("rejection message bulk-rejects the session's T2 proposals", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		p1 := createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)
		p2 := createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)
		other := createTestProposal(t, svc, "tenant-a", "sess-2", TierMedium)
		hard := createTestProposal(t, svc, "tenant-a", "sess-1", TierHigh)

		res, err := svc.SoftConfirmPendingT2(ctx, "tenant-a", "sess-1", "wait, don't do that", "chat")
		require.NoError(t, err)
		assert.True(t, res.Rejected)
		assert.ElementsMatch(t, []string{p1.ID, p2.ID}, res.RejectedIDs)
		assert.Empty(t, res.ConfirmedIDs)

		// Another session's proposal and the T3 proposal are untouched.
		for _, id := range []string{other.ID, hard.ID} {
			p, err := svc.GetProposal(ctx, "tenant-a", id)
			require.NoError(t, err)
			assert.Equal(t, StatusPending, p.Status)
		}
	})

	t.Run("end to end: confirm at t=90s with a 2 minute window", func(t *testing.T) {
		svc, _, current := newTestService(t)

		target := createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)
		bystander := createTestProposal(t, svc, "tenant-a", "sess-other", TierMedium)

		*current = current.Add(90 * time.Second)

		res, err := svc.SoftConfirmPendingT2(ctx, "tenant-a", "sess-1", "sounds good", "chat")
		require.NoError(t, err)
		assert.Equal(t, []string{target.ID}, res.ConfirmedIDs)

		confirmed, err := svc.GetProposal(ctx, "tenant-a", target.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, confirmed.Status)

		untouched, err := svc.GetProposal(ctx, "tenant-a", bystander.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, untouched.Status)
	})
}

func TestTenantIsolation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p := createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)

	// Reads as another tenant behave as "not found", never "forbidden".
	_, err := svc.GetProposal(ctx, "tenant-b", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// A soft-confirm sweep for another tenant with the same session ID
	// must not touch it.
	res, err := svc.SoftConfirmPendingT2(ctx, "tenant-b", "sess-1", "sounds good", "chat")
	require.NoError(t, err)
	assert.Empty(t, res.ConfirmedIDs)

	still, err := svc.GetProposal(ctx, "tenant-a", p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, still.Status)
}

func TestCleanupExpired(t *testing.T) {
	svc, _, current := newTestService(t)
	ctx := context.Background()

	createTestProposal(t, svc, "tenant-a", "sess-1", TierMedium)
	createTestProposal(t, svc, "tenant-b", "sess-9", TierHigh)
	*current = current.Add(31 * time.Minute)
	fresh := createTestProposal(t, svc, "tenant-a", "sess-1", TierHigh)

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// Idempotent: nothing new expired between calls.
	n, err = svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	p, err := svc.GetProposal(ctx, "tenant-a", fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
}
