package pglogistics

import (
	"context"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	if err := row.Scan(
		&o.ID, &o.ExternalID, &o.Name, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Storage) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, external_id, name, status, created_at, updated_at
FROM organizations
WHERE id = $1
`, orgID)

	o, err := scanOrganization(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select organization")
	}
	return o, nil
}

func (s *Storage) InsertOrganization(ctx context.Context, o *models.Organization) (*models.Organization, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO organizations (id, external_id, name, status, created_at, updated_at)
VALUES ($1,$2,$3,$4, now(), now())
RETURNING id, external_id, name, status, created_at, updated_at
`, o.ID, o.ExternalID, o.Name, o.Status)

	out, err := scanOrganization(row)
	if err != nil {
		return nil, errors.Wrap(err, "insert organization")
	}
	return out, nil
}

func (s *Storage) UpdateOrganization(ctx context.Context, o *models.Organization) (*models.Organization, error) {
	row := s.db.QueryRow(ctx, `
UPDATE organizations
SET external_id = $2, name = $3, status = $4, updated_at = now()
WHERE id = $1
RETURNING id, external_id, name, status, created_at, updated_at
`, o.ID, o.ExternalID, o.Name, o.Status)

	out, err := scanOrganization(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update organization")
	}
	return out, nil
}

func (s *Storage) DeleteOrganization(ctx context.Context, orgID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, orgID)
	if err != nil {
		return errors.Wrap(err, "delete organization")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) ListOrganizations(ctx context.Context, externalID string, limit, offset int) ([]*models.Organization, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT id, external_id, name, status, created_at, updated_at
FROM organizations
WHERE ($1 = '' OR external_id ILIKE '%' || $1 || '%')
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, externalID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select organizations")
	}
	defer rows.Close()

	var out []*models.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan organization")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func scanWebsite(row pgx.Row) (*models.Website, error) {
	var w models.Website
	if err := row.Scan(
		&w.ID, &w.OrgID, &w.Code, &w.Name, &w.Platform, &w.Domain,
		&w.Status, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Storage) GetWebsite(ctx context.Context, orgID, websiteID string) (*models.Website, error) {
	row := s.db.QueryRow(ctx, `
SELECT id, org_id, code, name, platform, domain, status, created_at, updated_at
FROM websites
WHERE org_id = $1 AND id = $2
`, orgID, websiteID)

	w, err := scanWebsite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select website")
	}
	return w, nil
}

func (s *Storage) InsertWebsite(ctx context.Context, w *models.Website) (*models.Website, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO websites (id, org_id, code, name, platform, domain, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
RETURNING id, org_id, code, name, platform, domain, status, created_at, updated_at
`, w.ID, w.OrgID, w.Code, w.Name, w.Platform, w.Domain, w.Status)

	out, err := scanWebsite(row)
	if err != nil {
		return nil, errors.Wrap(err, "insert website")
	}
	return out, nil
}

func (s *Storage) UpdateWebsite(ctx context.Context, w *models.Website) (*models.Website, error) {
	row := s.db.QueryRow(ctx, `
UPDATE websites
SET code = $3, name = $4, platform = $5, domain = $6, status = $7, updated_at = now()
WHERE org_id = $1 AND id = $2
RETURNING id, org_id, code, name, platform, domain, status, created_at, updated_at
`, w.OrgID, w.ID, w.Code, w.Name, w.Platform, w.Domain, w.Status)

	out, err := scanWebsite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update website")
	}
	return out, nil
}

func (s *Storage) DeleteWebsite(ctx context.Context, orgID, websiteID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM websites WHERE org_id = $1 AND id = $2`, orgID, websiteID)
	if err != nil {
		return errors.Wrap(err, "delete website")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Storage) ListWebsites(ctx context.Context, orgID string, limit, offset int) ([]*models.Website, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT id, org_id, code, name, platform, domain, status, created_at, updated_at
FROM websites
WHERE org_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, orgID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select websites")
	}
	defer rows.Close()

	var out []*models.Website
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan website")
		}
		out = append(out, w)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
