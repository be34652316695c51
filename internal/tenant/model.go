package tenant

import (
	"net/http"
	"time"

	"github.com/tidebook/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "tenant not found")
	ErrNameRequired  = apperror.New(http.StatusBadRequest, "tenant name is required")
	ErrAlreadyMember = apperror.New(http.StatusConflict, "user is already a member of this tenant")
	ErrMemberMissing = apperror.New(http.StatusNotFound, "tenant member not found")
	ErrInvalidRole   = apperror.New(http.StatusBadRequest, "invalid member role")
)

// Tenant is a business selling services through the platform. Every other
// table hangs off its ID.
type Tenant struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// Filter defines filter options for listing tenants.
type Filter struct {
	Page     int
	PageSize int
}

// Staff roles, matching the database enum.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member represents a staff user with a role within a tenant.
type Member struct {
	UserID      string
	Email       string
	DisplayName *string
	Role        string
}

// MemberFilter defines filter options for listing members.
type MemberFilter struct {
	Page     int
	PageSize int
}

// ValidRole reports whether role is one of the known staff roles.
func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}
