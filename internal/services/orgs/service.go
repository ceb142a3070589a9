package orgs

import (
	"context"

	"github.com/BearBump/ShipRollup/internal/ident"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	GetOrganization(ctx context.Context, orgID string) (*models.Organization, error)
	InsertOrganization(ctx context.Context, o *models.Organization) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, o *models.Organization) (*models.Organization, error)
	DeleteOrganization(ctx context.Context, orgID string) error
	ListOrganizations(ctx context.Context, externalID string, limit, offset int) ([]*models.Organization, error)

	GetWebsite(ctx context.Context, orgID, websiteID string) (*models.Website, error)
	InsertWebsite(ctx context.Context, w *models.Website) (*models.Website, error)
	UpdateWebsite(ctx context.Context, w *models.Website) (*models.Website, error)
	DeleteWebsite(ctx context.Context, orgID, websiteID string) error
	ListWebsites(ctx context.Context, orgID string, limit, offset int) ([]*models.Website, error)
}

type OrganizationCreateInput struct {
	Name       string
	ExternalID *string
	Status     string
}

type OrganizationPatch struct {
	Name       *string
	ExternalID *string
	Status     *string
}

type WebsiteCreateInput struct {
	Code     string
	Name     string
	Platform string
	Domain   *string
	Status   string
}

type WebsitePatch struct {
	Name     *string
	Platform *string
	Domain   *string
	Status   *string
}

type Service struct {
	repo Repository
	ids  *ident.Allocator
}

func New(repo Repository, ids *ident.Allocator) *Service {
	return &Service{repo: repo, ids: ids}
}

func (s *Service) CreateOrganization(ctx context.Context, in OrganizationCreateInput) (*models.Organization, error) {
	if in.Name == "" {
		return nil, errors.Wrap(models.ErrInvalid, "name is required")
	}
	if in.Status == "" {
		in.Status = models.OrgStatusActive
	}

	return s.repo.InsertOrganization(ctx, &models.Organization{
		ID:         s.ids.Allocate(ident.PrefixOrganization),
		ExternalID: in.ExternalID,
		Name:       in.Name,
		Status:     in.Status,
	})
}

func (s *Service) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	if orgID == "" {
		return nil, errors.Wrap(models.ErrInvalid, "orgId is required")
	}
	return s.repo.GetOrganization(ctx, orgID)
}

// PatchOrganization меняет только переданные поля, остальные не трогает.
func (s *Service) PatchOrganization(ctx context.Context, orgID string, p OrganizationPatch) (*models.Organization, error) {
	o, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.ExternalID != nil {
		o.ExternalID = p.ExternalID
	}
	if p.Status != nil {
		o.Status = *p.Status
	}

	return s.repo.UpdateOrganization(ctx, o)
}

func (s *Service) DeleteOrganization(ctx context.Context, orgID string) error {
	if orgID == "" {
		return errors.Wrap(models.ErrInvalid, "orgId is required")
	}
	return s.repo.DeleteOrganization(ctx, orgID)
}

func (s *Service) ListOrganizations(ctx context.Context, externalID string, limit, offset int) ([]*models.Organization, error) {
	return s.repo.ListOrganizations(ctx, externalID, limit, offset)
}

func (s *Service) CreateWebsite(ctx context.Context, orgID string, in WebsiteCreateInput) (*models.Website, error) {
	if in.Code == "" {
		return nil, errors.Wrap(models.ErrInvalid, "code is required")
	}
	if in.Name == "" {
		return nil, errors.Wrap(models.ErrInvalid, "name is required")
	}
	if in.Platform == "" {
		in.Platform = models.PlatformOther
	}
	if in.Status == "" {
		in.Status = models.OrgStatusActive
	}

	// Организация должна существовать: сайт без владельца не создаём.
	if _, err := s.repo.GetOrganization(ctx, orgID); err != nil {
		return nil, err
	}

	return s.repo.InsertWebsite(ctx, &models.Website{
		ID:       s.ids.Allocate(ident.PrefixWebsite),
		OrgID:    orgID,
		Code:     in.Code,
		Name:     in.Name,
		Platform: in.Platform,
		Domain:   in.Domain,
		Status:   in.Status,
	})
}

func (s *Service) GetWebsite(ctx context.Context, orgID, websiteID string) (*models.Website, error) {
	return s.repo.GetWebsite(ctx, orgID, websiteID)
}

func (s *Service) PatchWebsite(ctx context.Context, orgID, websiteID string, p WebsitePatch) (*models.Website, error) {
	w, err := s.repo.GetWebsite(ctx, orgID, websiteID)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Platform != nil {
		w.Platform = *p.Platform
	}
	if p.Domain != nil {
		w.Domain = p.Domain
	}
	if p.Status != nil {
		w.Status = *p.Status
	}

	return s.repo.UpdateWebsite(ctx, w)
}

func (s *Service) DeleteWebsite(ctx context.Context, orgID, websiteID string) error {
	return s.repo.DeleteWebsite(ctx, orgID, websiteID)
}

func (s *Service) ListWebsites(ctx context.Context, orgID string, limit, offset int) ([]*models.Website, error) {
	return s.repo.ListWebsites(ctx, orgID, limit, offset)
}
