package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidebook/booking-backend/internal/booking"
	"github.com/tidebook/booking-backend/internal/catalog"
	"github.com/tidebook/booking-backend/internal/proposal"
	"github.com/tidebook/booking-backend/internal/storefront"
)

// fakeProposals is a minimal in-memory proposal.Service. Rejection intent is
// modeled as the literal message "no"; the real classifier has its own tests.
type fakeProposals struct {
	seq   int
	items map[string]*proposal.Proposal
}

func newFakeProposals() *fakeProposals {
	return &fakeProposals{items: make(map[string]*proposal.Proposal)}
}

func (f *fakeProposals) CreateProposal(ctx context.Context, tenantID string, req proposal.CreateRequest) (*proposal.CreateResult, error) {
	f.seq++
	now := time.Now()
	p := &proposal.Proposal{
		ID:        fmt.Sprintf("p%d", f.seq),
		TenantID:  tenantID,
		SessionID: req.SessionID,
		ToolName:  req.ToolName,
		TrustTier: req.TrustTier,
		Payload:   req.Payload,
		Status:    proposal.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * time.Minute),
	}
	if req.TrustTier == proposal.TierLow {
		p.Status = proposal.StatusConfirmed
	}
	f.items[p.ID] = p
	return &proposal.CreateResult{
		Proposal:         p,
		RequiresApproval: req.TrustTier != proposal.TierLow,
		AutoConfirms:     req.TrustTier == proposal.TierMedium,
	}, nil
}

func (f *fakeProposals) GetProposal(ctx context.Context, tenantID, id string) (*proposal.Proposal, error) {
	p, ok := f.items[id]
	if !ok || p.TenantID != tenantID {
		return nil, proposal.ErrNotFound
	}
	return p, nil
}

func (f *fakeProposals) GetPendingProposals(ctx context.Context, tenantID, sessionID string) ([]*proposal.Proposal, error) {
	var out []*proposal.Proposal
	for _, p := range f.items {
		if p.TenantID == tenantID && p.SessionID == sessionID && p.Status == proposal.StatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProposals) ConfirmProposal(ctx context.Context, tenantID, id string) (*proposal.Proposal, error) {
	p, ok := f.items[id]
	if !ok || p.TenantID != tenantID || p.Status != proposal.StatusPending {
		return nil, nil
	}
	p.Status = proposal.StatusConfirmed
	return p, nil
}

func (f *fakeProposals) RejectProposal(ctx context.Context, tenantID, id string) (*proposal.Proposal, error) {
	p, ok := f.items[id]
	if !ok || p.TenantID != tenantID || p.Status != proposal.StatusPending {
		return nil, nil
	}
	p.Status = proposal.StatusRejected
	return p, nil
}

func (f *fakeProposals) SoftConfirmPendingT2(ctx context.Context, tenantID, sessionID, userMessage, agentType string) (*proposal.SoftConfirmResult, error) {
	res := &proposal.SoftConfirmResult{Rejected: userMessage == "no"}
	for _, p := range f.items {
		if p.TenantID != tenantID || p.SessionID != sessionID ||
			p.TrustTier != proposal.TierMedium || p.Status != proposal.StatusPending {
			continue
		}
		if res.Rejected {
			p.Status = proposal.StatusRejected
			res.RejectedIDs = append(res.RejectedIDs, p.ID)
		} else {
			p.Status = proposal.StatusConfirmed
			res.ConfirmedIDs = append(res.ConfirmedIDs, p.ID)
		}
	}
	return res, nil
}

func (f *fakeProposals) MarkExecuted(ctx context.Context, id string, result json.RawMessage) error {
	p, ok := f.items[id]
	if !ok || p.Status != proposal.StatusConfirmed {
		return proposal.ErrNotFound
	}
	p.Status = proposal.StatusExecuted
	p.Result = result
	return nil
}

func (f *fakeProposals) MarkFailed(ctx context.Context, id string, execErr string) error {
	p, ok := f.items[id]
	if !ok || p.Status != proposal.StatusConfirmed {
		return proposal.ErrNotFound
	}
	p.Status = proposal.StatusFailed
	p.ErrorMessage = &execErr
	return nil
}

func (f *fakeProposals) CleanupExpired(ctx context.Context) (int64, error) { return 0, nil }

type fakeCatalog struct {
	priceUpdates map[string]int64
	err          error
}

func (f *fakeCatalog) UpdatePrice(ctx context.Context, tenantID, id string, priceCents int64) (*catalog.Offering, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.priceUpdates == nil {
		f.priceUpdates = make(map[string]int64)
	}
	f.priceUpdates[id] = priceCents
	return &catalog.Offering{ID: id, TenantID: tenantID, PriceCents: priceCents}, nil
}

type fakeBookings struct {
	created  []booking.CreateRequest
	canceled []string
}

func (f *fakeBookings) Create(ctx context.Context, tenantID string, req booking.CreateRequest) (*booking.Booking, error) {
	f.created = append(f.created, req)
	return &booking.Booking{ID: "b1", TenantID: tenantID}, nil
}

func (f *fakeBookings) Cancel(ctx context.Context, tenantID, id string) (*booking.Booking, error) {
	f.canceled = append(f.canceled, id)
	return &booking.Booking{ID: id, TenantID: tenantID, Status: booking.StatusCanceled}, nil
}

func (f *fakeBookings) Reschedule(ctx context.Context, tenantID, id string, req booking.RescheduleRequest) (*booking.Booking, error) {
	return &booking.Booking{ID: id, TenantID: tenantID}, nil
}

type fakeStorefronts struct {
	updated []string
}

func (f *fakeStorefronts) Update(ctx context.Context, tenantID, id string, req storefront.UpdateRequest) (*storefront.Section, error) {
	f.updated = append(f.updated, id)
	return &storefront.Section{ID: id, TenantID: tenantID}, nil
}

func newTestExecutor() (*Executor, *fakeProposals, *fakeCatalog, *fakeBookings, *fakeStorefronts) {
	props := newFakeProposals()
	cat := &fakeCatalog{}
	books := &fakeBookings{}
	fronts := &fakeStorefronts{}
	return NewExecutor(NewRegistry(), props, cat, books, fronts), props, cat, books, fronts
}

func TestProposeUnknownTool(t *testing.T) {
	exec, _, _, _, _ := newTestExecutor()

	_, err := exec.Propose(context.Background(), "tenant-a", ProposeRequest{
		ToolName: "drop_all_tables",
	})
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestProposeTier1ExecutesImmediately(t *testing.T) {
	exec, props, _, _, fronts := newTestExecutor()

	payload, _ := json.Marshal(UpdateStorefrontSectionPayload{SectionID: "sec-1"})
	res, err := exec.Propose(context.Background(), "tenant-a", ProposeRequest{
		SessionID: "sess-1",
		ToolName:  ToolUpdateStorefrontSection,
		Payload:   payload,
	})
	require.NoError(t, err)
	assert.False(t, res.RequiresApproval)
	assert.Equal(t, []string{"sec-1"}, fronts.updated)
	assert.Equal(t, proposal.StatusExecuted, props.items[res.Proposal.ID].Status)
}

func TestProposeTier2WaitsForSoftConfirm(t *testing.T) {
	exec, props, cat, _, _ := newTestExecutor()
	ctx := context.Background()

	payload, _ := json.Marshal(UpdateOfferingPricePayload{OfferingID: "off-1", PriceCents: 12000})
	res, err := exec.Propose(ctx, "tenant-a", ProposeRequest{
		SessionID: "sess-1",
		ToolName:  ToolUpdateOfferingPrice,
		Payload:   payload,
	})
	require.NoError(t, err)
	assert.True(t, res.RequiresApproval)
	assert.True(t, res.AutoConfirms)
	assert.Empty(t, cat.priceUpdates)

	// Next non-objecting message executes it.
	sweep, err := exec.HandleUserMessage(ctx, "tenant-a", "sess-1", "sounds good", "chat")
	require.NoError(t, err)
	assert.Equal(t, []string{res.Proposal.ID}, sweep.ConfirmedIDs)
	assert.Equal(t, int64(12000), cat.priceUpdates["off-1"])
	assert.Equal(t, proposal.StatusExecuted, props.items[res.Proposal.ID].Status)
}

func TestHandleUserMessageRejection(t *testing.T) {
	exec, props, cat, _, _ := newTestExecutor()
	ctx := context.Background()

	payload, _ := json.Marshal(UpdateOfferingPricePayload{OfferingID: "off-1", PriceCents: 12000})
	res, err := exec.Propose(ctx, "tenant-a", ProposeRequest{
		SessionID: "sess-1",
		ToolName:  ToolUpdateOfferingPrice,
		Payload:   payload,
	})
	require.NoError(t, err)

	sweep, err := exec.HandleUserMessage(ctx, "tenant-a", "sess-1", "no", "chat")
	require.NoError(t, err)
	assert.True(t, sweep.Rejected)
	assert.Equal(t, []string{res.Proposal.ID}, sweep.RejectedIDs)
	assert.Empty(t, cat.priceUpdates)
	assert.Equal(t, proposal.StatusRejected, props.items[res.Proposal.ID].Status)
}

func TestConfirmTier3(t *testing.T) {
	exec, _, _, books, _ := newTestExecutor()
	ctx := context.Background()

	payload, _ := json.Marshal(CancelBookingPayload{BookingID: "b-9"})
	res, err := exec.Propose(ctx, "tenant-a", ProposeRequest{
		SessionID: "sess-1",
		ToolName:  ToolCancelBooking,
		Payload:   payload,
	})
	require.NoError(t, err)
	assert.False(t, res.AutoConfirms)
	assert.Empty(t, books.canceled)

	p, err := exec.Confirm(ctx, "tenant-a", res.Proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, proposal.StatusExecuted, p.Status)
	assert.Equal(t, []string{"b-9"}, books.canceled)

	// A second confirm hits a non-pending proposal.
	_, err = exec.Confirm(ctx, "tenant-a", res.Proposal.ID)
	assert.ErrorIs(t, err, ErrNotConfirmable)
}

func TestExecutionFailureMarksFailed(t *testing.T) {
	exec, props, cat, _, _ := newTestExecutor()
	ctx := context.Background()
	cat.err = catalog.ErrNotFound

	payload, _ := json.Marshal(UpdateOfferingPricePayload{OfferingID: "gone", PriceCents: 100})
	res, err := exec.Propose(ctx, "tenant-a", ProposeRequest{
		SessionID: "sess-1",
		ToolName:  ToolUpdateOfferingPrice,
		Payload:   payload,
	})
	require.NoError(t, err)

	p, err := exec.Confirm(ctx, "tenant-a", res.Proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, proposal.StatusFailed, p.Status)
	require.NotNil(t, props.items[res.Proposal.ID].ErrorMessage)
}

func TestRegistryTiers(t *testing.T) {
	r := NewRegistry()

	cases := map[string]proposal.TrustTier{
		ToolUpdateStorefrontSection: proposal.TierLow,
		ToolUpdateOfferingPrice:     proposal.TierMedium,
		ToolCreateBooking:           proposal.TierMedium,
		ToolCancelBooking:           proposal.TierHigh,
		ToolRescheduleBooking:       proposal.TierHigh,
	}
	for name, tier := range cases {
		tool, err := r.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, tier, tool.Tier)
	}
	assert.Len(t, r.List(), len(cases))
}
