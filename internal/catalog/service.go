package catalog

import (
	"context"
	"strings"
)

// CreateRequest holds fields for creating an offering.
type CreateRequest struct {
	CategoryID      *string
	Name            string
	Description     string
	PriceCents      int64
	Currency        string
	DurationMinutes int
	BookingMode     BookingMode
}

// UpdateRequest holds optional fields for updating an offering.
type UpdateRequest struct {
	CategoryID      *string
	Name            *string
	Description     *string
	PriceCents      *int64
	DurationMinutes *int
	IsActive        *bool
}

// Service defines business logic for a tenant's catalog.
type Service interface {
	Create(ctx context.Context, tenantID string, req CreateRequest) (*Offering, error)
	GetByID(ctx context.Context, tenantID, id string) (*Offering, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Offering, int, error)
	Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Offering, error)
	// UpdatePrice is the narrow mutation the agent executor applies for
	// approved price-change proposals.
	UpdatePrice(ctx context.Context, tenantID, id string, priceCents int64) (*Offering, error)
	Deactivate(ctx context.Context, tenantID, id string) error

	CreateCategory(ctx context.Context, tenantID, name string) (*Category, error)
	ListCategories(ctx context.Context, tenantID string) ([]*Category, error)
	DeleteCategory(ctx context.Context, tenantID, id string) error
}

type service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Offering, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if req.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}
	if req.BookingMode != ModeDate && req.BookingMode != ModeSlot {
		return nil, ErrInvalidMode
	}
	if req.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, tenantID, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	o := &Offering{
		TenantID:        tenantID,
		CategoryID:      req.CategoryID,
		Name:            name,
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		Currency:        currency,
		DurationMinutes: req.DurationMinutes,
		BookingMode:     req.BookingMode,
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Offering, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, filter Filter) ([]*Offering, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *service) Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Offering, error) {
	o, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		o.Name = name
	}
	if req.Description != nil {
		o.Description = *req.Description
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, ErrInvalidPrice
		}
		o.PriceCents = *req.PriceCents
	}
	if req.DurationMinutes != nil {
		o.DurationMinutes = *req.DurationMinutes
	}
	if req.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, tenantID, *req.CategoryID); err != nil {
			return nil, err
		}
		o.CategoryID = req.CategoryID
	}
	if req.IsActive != nil {
		o.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) UpdatePrice(ctx context.Context, tenantID, id string, priceCents int64) (*Offering, error) {
	if priceCents < 0 {
		return nil, ErrInvalidPrice
	}
	o, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	o.PriceCents = priceCents
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) Deactivate(ctx context.Context, tenantID, id string) error {
	o, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	o.IsActive = false
	return s.repo.Update(ctx, o)
}

func (s *service) CreateCategory(ctx context.Context, tenantID, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	c := &Category{TenantID: tenantID, Name: name}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context, tenantID string) ([]*Category, error) {
	return s.repo.ListCategories(ctx, tenantID)
}

func (s *service) DeleteCategory(ctx context.Context, tenantID, id string) error {
	return s.repo.DeleteCategory(ctx, tenantID, id)
}
