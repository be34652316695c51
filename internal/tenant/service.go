package tenant

import (
	"context"
	"errors"
	"strings"
)

// UpdateRequest defines the fields that can be updated on a tenant.
type UpdateRequest struct {
	Name     *string
	IsActive *bool
}

// Service defines business logic for tenants and their staff.
type Service interface {
	Create(ctx context.Context, name string) (*Tenant, error)
	GetByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context, filter Filter) ([]*Tenant, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Tenant, error)
	Deactivate(ctx context.Context, id string) error

	GetMember(ctx context.Context, tenantID, userID string) (*Member, error)
	AddMember(ctx context.Context, tenantID, userID, role string) error
	RemoveMember(ctx context.Context, tenantID, userID string) error
	UpdateMemberRole(ctx context.Context, tenantID, userID, role string) error
	ListMembers(ctx context.Context, tenantID string, filter MemberFilter) ([]*Member, int, error)

	// IsManagerOrAbove reports whether the user holds the owner or admin
	// role within the tenant.
	IsManagerOrAbove(ctx context.Context, tenantID, userID string) (bool, error)
}

type service struct {
	repo Repository
}

// NewService creates a new tenant service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, name string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	t := &Tenant{
		Name:     name,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Tenant, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		t.Name = name
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Deactivate soft-disables a tenant. Rows are never physically deleted, so
// bookings and proposals keep their audit trail.
func (s *service) Deactivate(ctx context.Context, id string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	t.IsActive = false
	return s.repo.Update(ctx, t)
}

func (s *service) GetMember(ctx context.Context, tenantID, userID string) (*Member, error) {
	return s.repo.GetMember(ctx, tenantID, userID)
}

func (s *service) AddMember(ctx context.Context, tenantID, userID, role string) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	if _, err := s.repo.GetByID(ctx, tenantID); err != nil {
		return err
	}
	return s.repo.AddMember(ctx, tenantID, userID, role)
}

func (s *service) RemoveMember(ctx context.Context, tenantID, userID string) error {
	return s.repo.RemoveMember(ctx, tenantID, userID)
}

func (s *service) UpdateMemberRole(ctx context.Context, tenantID, userID, role string) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	return s.repo.UpdateMemberRole(ctx, tenantID, userID, role)
}

func (s *service) ListMembers(ctx context.Context, tenantID string, filter MemberFilter) ([]*Member, int, error) {
	return s.repo.ListMembers(ctx, tenantID, filter)
}

func (s *service) IsManagerOrAbove(ctx context.Context, tenantID, userID string) (bool, error) {
	m, err := s.repo.GetMember(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberMissing) {
			return false, nil
		}
		return false, err
	}
	return m.Role == RoleOwner || m.Role == RoleAdmin, nil
}
