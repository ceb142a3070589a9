package pglogistics

import (
	"context"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const eventColumns = `
  id, org_id, tracking_id, event_time, event_code,
  event_description, event_city, event_state, event_country, event_zip,
  source, event_hash, created_at`

func scanEvent(row pgx.Row) (*models.TrackingEvent, error) {
	var e models.TrackingEvent
	if err := row.Scan(
		&e.ID, &e.OrgID, &e.TrackingID, &e.EventTime, &e.EventCode,
		&e.EventDescription, &e.EventCity, &e.EventState, &e.EventCountry, &e.EventZip,
		&e.Source, &e.EventHash, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Storage) GetEventByHash(ctx context.Context, orgID, eventHash string) (*models.TrackingEvent, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+eventColumns+`
FROM tracking_events
WHERE org_id = $1 AND event_hash = $2
`, orgID, eventHash)

	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select event by hash")
	}
	return e, nil
}

// ApplyEvent вставляет событие и двигает статус владеющего трекинга в одной
// транзакции. Уникальный индекс (org_id, event_hash) гасит конкурентные
// дубликаты: проигравшая вставка читает уже существующую запись и не трогает
// трекинг.
func (s *Storage) ApplyEvent(ctx context.Context, ev *models.TrackingEvent, newStatus string, hasStatus bool) (*models.TrackingEvent, bool, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
INSERT INTO tracking_events (
  id, org_id, tracking_id, event_time, event_code,
  event_description, event_city, event_state, event_country, event_zip,
  source, event_hash, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now())
ON CONFLICT (org_id, event_hash) DO NOTHING
RETURNING `+eventColumns+`
`, ev.ID, ev.OrgID, ev.TrackingID, ev.EventTime.UTC(), ev.EventCode,
		ev.EventDescription, ev.EventCity, ev.EventState, ev.EventCountry, ev.EventZip,
		ev.Source, ev.EventHash)

	stored, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Дубликат уже записан другим запросом — возвращаем его без записи.
		if err := tx.Commit(ctx); err != nil {
			return nil, false, errors.Wrap(err, "commit tx")
		}
		existing, err := s.GetEventByHash(ctx, ev.OrgID, ev.EventHash)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "insert tracking event")
	}

	// Монотонность last_event_at обеспечивается условием в WHERE: сравнение и
	// запись атомарны, поздно пришедшее событие со старым временем не
	// откатывает более свежий статус.
	if hasStatus {
		_, err = tx.Exec(ctx, `
UPDATE tracking
SET status = $3, last_event_at = $4, updated_at = now()
WHERE org_id = $1 AND id = $2
  AND (last_event_at IS NULL OR last_event_at < $4)
`, ev.OrgID, ev.TrackingID, newStatus, ev.EventTime.UTC())
	} else {
		_, err = tx.Exec(ctx, `
UPDATE tracking
SET last_event_at = $3, updated_at = now()
WHERE org_id = $1 AND id = $2
  AND (last_event_at IS NULL OR last_event_at < $3)
`, ev.OrgID, ev.TrackingID, ev.EventTime.UTC())
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "advance tracking")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, errors.Wrap(err, "commit tx")
	}
	return stored, true, nil
}

func (s *Storage) ListTrackingEvents(ctx context.Context, orgID, trackingID string, limit, offset int) ([]*models.TrackingEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT `+eventColumns+`
FROM tracking_events
WHERE org_id = $1 AND tracking_id = $2
ORDER BY event_time DESC
LIMIT $3 OFFSET $4
`, orgID, trackingID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	var out []*models.TrackingEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
