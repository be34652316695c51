package storefront

import (
	"context"
	"strings"
)

type CreateRequest struct {
	Slug      string
	Title     string
	Body      string
	Position  int
	Published bool
}

type UpdateRequest struct {
	Slug      *string
	Title     *string
	Body      *string
	Position  *int
	Published *bool
}

type Service interface {
	Create(ctx context.Context, tenantID string, req CreateRequest) (*Section, error)
	GetByID(ctx context.Context, tenantID, id string) (*Section, error)
	GetBySlug(ctx context.Context, tenantID, slug string) (*Section, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Section, int, error)
	Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Section, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Section, error) {
	if strings.TrimSpace(req.Slug) == "" {
		return nil, ErrSlugRequired
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	sec := &Section{
		TenantID:  tenantID,
		Slug:      strings.ToLower(strings.TrimSpace(req.Slug)),
		Title:     req.Title,
		Body:      req.Body,
		Position:  req.Position,
		Published: req.Published,
	}

	if err := s.repo.Create(ctx, sec); err != nil {
		return nil, err
	}
	return sec, nil
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Section, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) GetBySlug(ctx context.Context, tenantID, slug string) (*Section, error) {
	return s.repo.GetBySlug(ctx, tenantID, slug)
}

func (s *service) List(ctx context.Context, tenantID string, filter Filter) ([]*Section, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *service) Update(ctx context.Context, tenantID, id string, req UpdateRequest) (*Section, error) {
	sec, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Slug != nil {
		if strings.TrimSpace(*req.Slug) == "" {
			return nil, ErrSlugRequired
		}
		sec.Slug = strings.ToLower(strings.TrimSpace(*req.Slug))
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, ErrTitleRequired
		}
		sec.Title = *req.Title
	}
	if req.Body != nil {
		sec.Body = *req.Body
	}
	if req.Position != nil {
		sec.Position = *req.Position
	}
	if req.Published != nil {
		sec.Published = *req.Published
	}

	if err := s.repo.Update(ctx, sec); err != nil {
		return nil, err
	}
	return sec, nil
}

func (s *service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.repo.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, tenantID, id)
}
