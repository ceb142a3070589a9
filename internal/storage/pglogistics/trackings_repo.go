package pglogistics

import (
	"context"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const trackingColumns = `
  id, org_id, fulfillment_id, tracking_number, carrier, tracking_url,
  status, is_primary, last_event_at, created_at, updated_at`

func scanTracking(row pgx.Row) (*models.Tracking, error) {
	var t models.Tracking
	if err := row.Scan(
		&t.ID, &t.OrgID, &t.FulfillmentID, &t.TrackingNumber, &t.Carrier, &t.TrackingURL,
		&t.Status, &t.IsPrimary, &t.LastEventAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Storage) GetTracking(ctx context.Context, orgID, trackingID string) (*models.Tracking, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+trackingColumns+`
FROM tracking
WHERE org_id = $1 AND id = $2
`, orgID, trackingID)

	t, err := scanTracking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select tracking")
	}
	return t, nil
}

func (s *Storage) GetTrackingByNumber(ctx context.Context, fulfillmentID, trackingNumber string) (*models.Tracking, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+trackingColumns+`
FROM tracking
WHERE fulfillment_id = $1 AND tracking_number = $2
`, fulfillmentID, trackingNumber)

	t, err := scanTracking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select tracking by number")
	}
	return t, nil
}

func (s *Storage) InsertTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO tracking (
  id, org_id, fulfillment_id, tracking_number, carrier, tracking_url,
  status, is_primary, last_event_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now(), now())
RETURNING `+trackingColumns+`
`, t.ID, t.OrgID, t.FulfillmentID, t.TrackingNumber, t.Carrier, t.TrackingURL,
		t.Status, t.IsPrimary, t.LastEventAt)

	out, err := scanTracking(row)
	if err != nil {
		return nil, errors.Wrap(err, "insert tracking")
	}
	return out, nil
}

func (s *Storage) UpdateTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error) {
	row := s.db.QueryRow(ctx, `
UPDATE tracking
SET carrier = $3, tracking_url = $4, status = $5, is_primary = $6,
    last_event_at = $7, updated_at = now()
WHERE org_id = $1 AND id = $2
RETURNING `+trackingColumns+`
`, t.OrgID, t.ID, t.Carrier, t.TrackingURL, t.Status, t.IsPrimary, t.LastEventAt)

	out, err := scanTracking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update tracking")
	}
	return out, nil
}

func (s *Storage) DeleteTracking(ctx context.Context, orgID, trackingID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tracking WHERE org_id = $1 AND id = $2`, orgID, trackingID)
	if err != nil {
		return errors.Wrap(err, "delete tracking")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

type TrackingFilter struct {
	Status         string
	Carrier        string
	TrackingNumber string
	From           *time.Time
	To             *time.Time
}

func (s *Storage) ListTrackings(ctx context.Context, fulfillmentID string, f TrackingFilter, limit, offset int) ([]*models.Tracking, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT `+trackingColumns+`
FROM tracking
WHERE fulfillment_id = $1
  AND ($2 = '' OR status = $2)
  AND ($3 = '' OR carrier ILIKE '%' || $3 || '%')
  AND ($4 = '' OR tracking_number ILIKE '%' || $4 || '%')
  AND ($5::timestamptz IS NULL OR created_at >= $5)
  AND ($6::timestamptz IS NULL OR created_at <= $6)
ORDER BY updated_at DESC
LIMIT $7 OFFSET $8
`, fulfillmentID, f.Status, f.Carrier, f.TrackingNumber, f.From, f.To, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select trackings")
	}
	defer rows.Close()

	var out []*models.Tracking
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan tracking")
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
