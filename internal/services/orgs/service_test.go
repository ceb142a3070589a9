package orgs

import (
	"context"
	"testing"

	"github.com/BearBump/ShipRollup/internal/ident"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	org    *models.Organization
	orgErr error

	website    *models.Website
	websiteErr error

	insertedOrg     *models.Organization
	updatedOrg      *models.Organization
	insertedWebsite *models.Website
	updatedWebsite  *models.Website
}

func (f *fakeRepo) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	if f.orgErr != nil {
		return nil, f.orgErr
	}
	return f.org, nil
}
func (f *fakeRepo) InsertOrganization(ctx context.Context, o *models.Organization) (*models.Organization, error) {
	f.insertedOrg = o
	return o, nil
}
func (f *fakeRepo) UpdateOrganization(ctx context.Context, o *models.Organization) (*models.Organization, error) {
	f.updatedOrg = o
	return o, nil
}
func (f *fakeRepo) DeleteOrganization(ctx context.Context, orgID string) error { return nil }
func (f *fakeRepo) ListOrganizations(ctx context.Context, externalID string, limit, offset int) ([]*models.Organization, error) {
	return nil, nil
}
func (f *fakeRepo) GetWebsite(ctx context.Context, orgID, websiteID string) (*models.Website, error) {
	if f.websiteErr != nil {
		return nil, f.websiteErr
	}
	return f.website, nil
}
func (f *fakeRepo) InsertWebsite(ctx context.Context, w *models.Website) (*models.Website, error) {
	f.insertedWebsite = w
	return w, nil
}
func (f *fakeRepo) UpdateWebsite(ctx context.Context, w *models.Website) (*models.Website, error) {
	f.updatedWebsite = w
	return w, nil
}
func (f *fakeRepo) DeleteWebsite(ctx context.Context, orgID, websiteID string) error { return nil }
func (f *fakeRepo) ListWebsites(ctx context.Context, orgID string, limit, offset int) ([]*models.Website, error) {
	return nil, nil
}

func TestCreateOrganization(t *testing.T) {
	r := &fakeRepo{}
	s := New(r, ident.New(nil))

	_, err := s.CreateOrganization(context.Background(), OrganizationCreateInput{})
	require.ErrorIs(t, err, models.ErrInvalid)

	o, err := s.CreateOrganization(context.Background(), OrganizationCreateInput{Name: "Acme"})
	require.NoError(t, err)
	require.Equal(t, models.OrgStatusActive, o.Status)
	require.Equal(t, ident.PrefixOrganization, o.ID[:3])
	require.Len(t, o.ID, 12)
}

func TestPatchOrganization_Merges(t *testing.T) {
	r := &fakeRepo{org: &models.Organization{ID: "ORG1", Name: "Acme", Status: models.OrgStatusActive}}
	s := New(r, ident.New(nil))

	inactive := models.OrgStatusInactive
	o, err := s.PatchOrganization(context.Background(), "ORG1", OrganizationPatch{Status: &inactive})
	require.NoError(t, err)
	require.Equal(t, models.OrgStatusInactive, o.Status)
	require.Equal(t, "Acme", o.Name)
}

func TestPatchOrganization_NotFound(t *testing.T) {
	s := New(&fakeRepo{orgErr: models.ErrNotFound}, ident.New(nil))
	_, err := s.PatchOrganization(context.Background(), "ORG1", OrganizationPatch{})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateWebsite(t *testing.T) {
	r := &fakeRepo{org: &models.Organization{ID: "ORG1"}}
	s := New(r, ident.New(nil))

	_, err := s.CreateWebsite(context.Background(), "ORG1", WebsiteCreateInput{Name: "Shop"})
	require.ErrorIs(t, err, models.ErrInvalid)

	w, err := s.CreateWebsite(context.Background(), "ORG1", WebsiteCreateInput{Code: "shop", Name: "Shop"})
	require.NoError(t, err)
	require.Equal(t, models.PlatformOther, w.Platform)
	require.Equal(t, models.OrgStatusActive, w.Status)
	require.Equal(t, "ORG1", w.OrgID)
	require.Equal(t, ident.PrefixWebsite, w.ID[:3])
}

func TestCreateWebsite_OrgNotFound(t *testing.T) {
	s := New(&fakeRepo{orgErr: models.ErrNotFound}, ident.New(nil))
	_, err := s.CreateWebsite(context.Background(), "ORG1", WebsiteCreateInput{Code: "shop", Name: "Shop"})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestPatchWebsite_Merges(t *testing.T) {
	r := &fakeRepo{website: &models.Website{ID: "WEB1", OrgID: "ORG1", Name: "Shop", Platform: models.PlatformShopify}}
	s := New(r, ident.New(nil))

	name := "Shop EU"
	w, err := s.PatchWebsite(context.Background(), "ORG1", "WEB1", WebsitePatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Shop EU", w.Name)
	require.Equal(t, models.PlatformShopify, w.Platform)
}
