package http

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tidebook/booking-backend/internal/agent"
	"github.com/tidebook/booking-backend/internal/auth"
	"github.com/tidebook/booking-backend/internal/pkg/request"
	"github.com/tidebook/booking-backend/internal/pkg/response"
	"github.com/tidebook/booking-backend/internal/proposal"
)

type Handler struct {
	executor  *agent.Executor
	registry  *agent.Registry
	proposals proposal.Service
}

func NewHandler(executor *agent.Executor, registry *agent.Registry, proposals proposal.Service) *Handler {
	return &Handler{executor: executor, registry: registry, proposals: proposals}
}

// Propose registers an agent write. Only the server-side registry decides
// the trust tier; the request cannot ask for one.
func (h *Handler) Propose(c *gin.Context) {
	var body ProposeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.executor.Propose(c.Request.Context(), auth.GetTenantID(c), agent.ProposeRequest{
		SessionID: body.SessionID,
		ToolName:  body.ToolName,
		Operation: body.Operation,
		Payload:   body.Payload,
		Preview:   body.Preview,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, ProposeResponse{
		Proposal:         NewProposalResponse(res.Proposal),
		RequiresApproval: res.RequiresApproval,
		AutoConfirms:     res.AutoConfirms,
	})
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	p, err := h.proposals.GetProposal(c.Request.Context(), auth.GetTenantID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProposalResponse(p))
}

func (h *Handler) ListPending(c *gin.Context) {
	sessionID := c.Query("session_id")

	pending, err := h.proposals.GetPendingProposals(c.Request.Context(), auth.GetTenantID(c), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ProposalResponse, len(pending))
	for i, p := range pending {
		items[i] = NewProposalResponse(p)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Confirm(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	p, err := h.executor.Confirm(c.Request.Context(), auth.GetTenantID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProposalResponse(p))
}

func (h *Handler) Reject(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	p, err := h.executor.Reject(c.Request.Context(), auth.GetTenantID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewProposalResponse(p))
}

// UserMessage runs the soft-confirm sweep for a session's inbound message.
func (h *Handler) UserMessage(c *gin.Context) {
	var body UserMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.executor.HandleUserMessage(
		c.Request.Context(), auth.GetTenantID(c),
		body.SessionID, body.Message, body.AgentType,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, UserMessageResponse{
		Rejected:     res.Rejected,
		RejectedIDs:  res.RejectedIDs,
		ConfirmedIDs: res.ConfirmedIDs,
	})
}

func (h *Handler) ListTools(c *gin.Context) {
	tools := h.registry.List()
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

	items := make([]ToolResponse, len(tools))
	for i, t := range tools {
		items[i] = ToolResponse{Name: t.Name, TrustTier: string(t.Tier), Description: t.Description}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
