package api

import (
	"time"

	"github.com/tidebook/booking-backend/internal/user"
)

// SignupRequest is the payload for POST /v1/auth/signup. It creates the
// tenant and its owner account in one step.
type SignupRequest struct {
	TenantName  string `json:"tenant_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// StaffRequest is the payload for POST /v1/staff: a manager adding a staff
// account to their tenant.
type StaffRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required,oneof=owner admin member"`
}

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName *string    `json:"display_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// SignupResponse is the response for POST /v1/auth/signup.
type SignupResponse struct {
	TenantID    string       `json:"tenant_id"`
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// LoginResponse is the response for POST /v1/auth/login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TenantID    string       `json:"tenant_id"`
	User        UserResponse `json:"user"`
}

// MeResponse is the response for GET /v1/me.
type MeResponse struct {
	TenantID string       `json:"tenant_id"`
	User     UserResponse `json:"user"`
}

// NewUserResponse converts a domain user to its API shape.
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
