package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/tidebook/booking-backend/internal/booking"
	"github.com/tidebook/booking-backend/internal/catalog"
	"github.com/tidebook/booking-backend/internal/pkg/apperror"
	"github.com/tidebook/booking-backend/internal/proposal"
	"github.com/tidebook/booking-backend/internal/storefront"
)

var ErrNotConfirmable = apperror.New(http.StatusConflict, "proposal is not awaiting confirmation")

// The executor only needs the write paths of each domain service.
type catalogWriter interface {
	UpdatePrice(ctx context.Context, tenantID, id string, priceCents int64) (*catalog.Offering, error)
}

type bookingWriter interface {
	Create(ctx context.Context, tenantID string, req booking.CreateRequest) (*booking.Booking, error)
	Cancel(ctx context.Context, tenantID, id string) (*booking.Booking, error)
	Reschedule(ctx context.Context, tenantID, id string, req booking.RescheduleRequest) (*booking.Booking, error)
}

type storefrontWriter interface {
	Update(ctx context.Context, tenantID, id string, req storefront.UpdateRequest) (*storefront.Section, error)
}

// ProposeRequest is a single write an agent wants to perform.
type ProposeRequest struct {
	SessionID string
	ToolName  string
	Operation string // human-readable description of the write
	Payload   json.RawMessage
	Preview   string // shown to the user when approval is needed
}

// Executor turns approved proposals into actual writes. The trust tier
// decides when that happens: T1 right away, T2 after the soft-confirm sweep,
// T3 after an explicit confirm call.
type Executor struct {
	registry    *Registry
	proposals   proposal.Service
	catalog     catalogWriter
	bookings    bookingWriter
	storefronts storefrontWriter
}

func NewExecutor(
	registry *Registry,
	proposals proposal.Service,
	catalogService catalogWriter,
	bookingService bookingWriter,
	storefrontService storefrontWriter,
) *Executor {
	return &Executor{
		registry:    registry,
		proposals:   proposals,
		catalog:     catalogService,
		bookings:    bookingService,
		storefronts: storefrontService,
	}
}

// Propose records the write as a proposal. A T1 tool executes immediately;
// T2 and T3 return pending and wait for their confirmation path.
func (e *Executor) Propose(ctx context.Context, tenantID string, req ProposeRequest) (*proposal.CreateResult, error) {
	tool, err := e.registry.Lookup(req.ToolName)
	if err != nil {
		return nil, err
	}

	res, err := e.proposals.CreateProposal(ctx, tenantID, proposal.CreateRequest{
		SessionID: req.SessionID,
		ToolName:  tool.Name,
		Operation: req.Operation,
		TrustTier: tool.Tier,
		Payload:   req.Payload,
		Preview:   req.Preview,
	})
	if err != nil {
		return nil, err
	}

	if res.Proposal.Status == proposal.StatusConfirmed {
		e.Execute(ctx, res.Proposal)
	}
	return res, nil
}

// Confirm applies an explicit user confirmation (the T3 path, also valid for
// a T2 the user confirms by hand) and executes the proposal.
func (e *Executor) Confirm(ctx context.Context, tenantID, id string) (*proposal.Proposal, error) {
	p, err := e.proposals.ConfirmProposal(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotConfirmable
	}

	e.Execute(ctx, p)

	return e.proposals.GetProposal(ctx, tenantID, id)
}

// Reject applies an explicit user rejection.
func (e *Executor) Reject(ctx context.Context, tenantID, id string) (*proposal.Proposal, error) {
	p, err := e.proposals.RejectProposal(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotConfirmable
	}
	return p, nil
}

// HandleUserMessage runs the soft-confirm sweep for the session's next
// inbound message and executes whatever it confirmed.
func (e *Executor) HandleUserMessage(ctx context.Context, tenantID, sessionID, message, agentType string) (*proposal.SoftConfirmResult, error) {
	res, err := e.proposals.SoftConfirmPendingT2(ctx, tenantID, sessionID, message, agentType)
	if err != nil {
		return nil, err
	}

	for _, id := range res.ConfirmedIDs {
		p, err := e.proposals.GetProposal(ctx, tenantID, id)
		if err != nil {
			log.Printf("load confirmed proposal %s failed: %v", id, err)
			continue
		}
		e.Execute(ctx, p)
	}
	return res, nil
}

// Execute applies a confirmed proposal's stored payload and records the
// outcome. A failed execution marks the proposal failed rather than
// returning an error: the proposal row is the durable record of what
// happened to an approved write.
func (e *Executor) Execute(ctx context.Context, p *proposal.Proposal) {
	result, err := e.apply(ctx, p)
	if err != nil {
		if markErr := e.proposals.MarkFailed(ctx, p.ID, err.Error()); markErr != nil {
			log.Printf("mark proposal %s failed errored: %v", p.ID, markErr)
		}
		return
	}
	if markErr := e.proposals.MarkExecuted(ctx, p.ID, result); markErr != nil {
		log.Printf("mark proposal %s executed errored: %v", p.ID, markErr)
	}
}

func (e *Executor) apply(ctx context.Context, p *proposal.Proposal) (json.RawMessage, error) {
	switch p.ToolName {
	case ToolUpdateStorefrontSection:
		var payload UpdateStorefrontSectionPayload
		if err := json.Unmarshal(p.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		sec, err := e.storefronts.Update(ctx, p.TenantID, payload.SectionID, storefront.UpdateRequest{
			Title:     payload.Title,
			Body:      payload.Body,
			Published: payload.Published,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"section_id": sec.ID})

	case ToolUpdateOfferingPrice:
		var payload UpdateOfferingPricePayload
		if err := json.Unmarshal(p.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		off, err := e.catalog.UpdatePrice(ctx, p.TenantID, payload.OfferingID, payload.PriceCents)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"offering_id": off.ID, "price_cents": off.PriceCents})

	case ToolCreateBooking:
		var payload CreateBookingPayload
		if err := json.Unmarshal(p.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		b, err := e.bookings.Create(ctx, p.TenantID, booking.CreateRequest{
			OfferingID:    payload.OfferingID,
			CustomerName:  payload.CustomerName,
			CustomerEmail: payload.CustomerEmail,
			CustomerPhone: payload.CustomerPhone,
			Date:          payload.Date,
			StartTime:     payload.StartTime,
			EndTime:       payload.EndTime,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"booking_id": b.ID})

	case ToolCancelBooking:
		var payload CancelBookingPayload
		if err := json.Unmarshal(p.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		b, err := e.bookings.Cancel(ctx, p.TenantID, payload.BookingID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"booking_id": b.ID, "status": b.Status})

	case ToolRescheduleBooking:
		var payload RescheduleBookingPayload
		if err := json.Unmarshal(p.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		b, err := e.bookings.Reschedule(ctx, p.TenantID, payload.BookingID, booking.RescheduleRequest{
			Date:      payload.Date,
			StartTime: payload.StartTime,
			EndTime:   payload.EndTime,
		})
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"booking_id": b.ID})

	default:
		return nil, ErrUnknownTool
	}
}
