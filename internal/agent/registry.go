package agent

import (
	"net/http"

	"github.com/tidebook/booking-backend/internal/pkg/apperror"
	"github.com/tidebook/booking-backend/internal/proposal"
)

var ErrUnknownTool = apperror.New(http.StatusBadRequest, "unknown agent tool")

// Tool names. Every write an agent can perform goes through one of these;
// there is no generic "run SQL" or "call service" escape hatch.
const (
	ToolUpdateStorefrontSection = "update_storefront_section"
	ToolUpdateOfferingPrice     = "update_offering_price"
	ToolCreateBooking           = "create_booking"
	ToolCancelBooking           = "cancel_booking"
	ToolRescheduleBooking       = "reschedule_booking"
)

// Tool describes one agent-invocable write and the trust tier it carries.
// The tier lives here, server-side: an agent cannot ask for a lower tier
// than the tool is registered with.
type Tool struct {
	Name        string
	Tier        proposal.TrustTier
	Description string
}

// Registry maps tool names to their definitions.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns the registry of built-in tools. Content edits are
// low-stakes and reversible (T1); money- or inventory-adjacent writes need
// soft confirmation (T2); destructive changes to existing bookings need an
// explicit confirmation (T3).
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range []Tool{
		{ToolUpdateStorefrontSection, proposal.TierLow, "edit a storefront section"},
		{ToolUpdateOfferingPrice, proposal.TierMedium, "change an offering's price"},
		{ToolCreateBooking, proposal.TierMedium, "create a booking for a customer"},
		{ToolCancelBooking, proposal.TierHigh, "cancel an existing booking"},
		{ToolRescheduleBooking, proposal.TierHigh, "move an existing booking to a new slot"},
	} {
		r.tools[t.Name] = t
	}
	return r
}

// Lookup returns the tool definition for name.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, ErrUnknownTool
	}
	return t, nil
}

// List returns every registered tool.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}
