package http

import (
	"encoding/json"
	"time"

	"github.com/tidebook/booking-backend/internal/proposal"
)

type ProposeRequest struct {
	SessionID string          `json:"session_id" binding:"required"`
	ToolName  string          `json:"tool_name" binding:"required"`
	Operation string          `json:"operation"`
	Payload   json.RawMessage `json:"payload" binding:"required"`
	Preview   string          `json:"preview"`
}

type UserMessageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
	AgentType string `json:"agent_type"`
}

type ProposalResponse struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	ToolName  string          `json:"tool_name"`
	Operation string          `json:"operation,omitempty"`
	TrustTier string          `json:"trust_tier"`
	Preview   string          `json:"preview,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *string         `json:"error,omitempty"`
}

func NewProposalResponse(p *proposal.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:        p.ID,
		SessionID: p.SessionID,
		ToolName:  p.ToolName,
		Operation: p.Operation,
		TrustTier: string(p.TrustTier),
		Preview:   p.Preview,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		ExpiresAt: p.ExpiresAt,
		Result:    p.Result,
		Error:     p.ErrorMessage,
	}
}

type ProposeResponse struct {
	Proposal         ProposalResponse `json:"proposal"`
	RequiresApproval bool             `json:"requires_approval"`
	AutoConfirms     bool             `json:"auto_confirms"`
}

type UserMessageResponse struct {
	Rejected     bool     `json:"rejected"`
	RejectedIDs  []string `json:"rejected_ids,omitempty"`
	ConfirmedIDs []string `json:"confirmed_ids,omitempty"`
}

type ToolResponse struct {
	Name        string `json:"name"`
	TrustTier   string `json:"trust_tier"`
	Description string `json:"description"`
}
