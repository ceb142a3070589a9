package pglogistics

import (
	"context"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// RecomputeResult — исход пересчёта агрегата заказа.
type RecomputeResult struct {
	Found    bool
	Changed  bool
	Previous string
	Status   string
}

const fulfillmentColumns = `
  id, org_id, order_id, external_fulfillment_id, status, carrier,
  service_level, shipped_at, delivered_at, created_at, updated_at`

func scanFulfillment(row pgx.Row) (*models.Fulfillment, error) {
	var f models.Fulfillment
	if err := row.Scan(
		&f.ID, &f.OrgID, &f.OrderID, &f.ExternalFulfillmentID, &f.Status, &f.Carrier,
		&f.ServiceLevel, &f.ShippedAt, &f.DeliveredAt, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Storage) GetFulfillment(ctx context.Context, orgID, fulfillmentID string) (*models.Fulfillment, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+fulfillmentColumns+`
FROM fulfillments
WHERE org_id = $1 AND id = $2
`, orgID, fulfillmentID)

	f, err := scanFulfillment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select fulfillment")
	}
	return f, nil
}

func (s *Storage) InsertFulfillment(ctx context.Context, f *models.Fulfillment) (*models.Fulfillment, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO fulfillments (
  id, org_id, order_id, external_fulfillment_id, status, carrier,
  service_level, shipped_at, delivered_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now(), now())
RETURNING `+fulfillmentColumns+`
`, f.ID, f.OrgID, f.OrderID, f.ExternalFulfillmentID, f.Status, f.Carrier,
		f.ServiceLevel, f.ShippedAt, f.DeliveredAt)

	out, err := scanFulfillment(row)
	if err != nil {
		return nil, errors.Wrap(err, "insert fulfillment")
	}
	return out, nil
}

func (s *Storage) UpdateFulfillment(ctx context.Context, f *models.Fulfillment) (*models.Fulfillment, error) {
	row := s.db.QueryRow(ctx, `
UPDATE fulfillments
SET external_fulfillment_id = $3, status = $4, carrier = $5,
    service_level = $6, shipped_at = $7, delivered_at = $8, updated_at = now()
WHERE org_id = $1 AND id = $2
RETURNING `+fulfillmentColumns+`
`, f.OrgID, f.ID, f.ExternalFulfillmentID, f.Status, f.Carrier,
		f.ServiceLevel, f.ShippedAt, f.DeliveredAt)

	out, err := scanFulfillment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update fulfillment")
	}
	return out, nil
}

func (s *Storage) DeleteFulfillment(ctx context.Context, orgID, fulfillmentID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM fulfillments WHERE org_id = $1 AND id = $2`, orgID, fulfillmentID)
	if err != nil {
		return errors.Wrap(err, "delete fulfillment")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

type FulfillmentFilter struct {
	Status                string
	Carrier               string
	ExternalFulfillmentID string
	From                  *time.Time
	To                    *time.Time
}

func (s *Storage) ListFulfillments(ctx context.Context, orgID, orderID string, f FulfillmentFilter, limit, offset int) ([]*models.Fulfillment, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT `+fulfillmentColumns+`
FROM fulfillments
WHERE org_id = $1 AND order_id = $2
  AND ($3 = '' OR status = $3)
  AND ($4 = '' OR carrier ILIKE '%' || $4 || '%')
  AND ($5 = '' OR external_fulfillment_id ILIKE '%' || $5 || '%')
  AND ($6::timestamptz IS NULL OR created_at >= $6)
  AND ($7::timestamptz IS NULL OR created_at <= $7)
ORDER BY updated_at DESC
LIMIT $8 OFFSET $9
`, orgID, orderID, f.Status, f.Carrier, f.ExternalFulfillmentID, f.From, f.To, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select fulfillments")
	}
	defer rows.Close()

	var out []*models.Fulfillment
	for rows.Next() {
		item, err := scanFulfillment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan fulfillment")
		}
		out = append(out, item)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// RecomputeOrderStatus пересчитывает агрегат заказа в одной транзакции:
// заказ блокируется FOR UPDATE, набор статусов детей перечитывается уже под
// блокировкой, затем пишется свежий агрегат. Два конкурентных пересчёта
// сериализуются на строке заказа — потерянных обновлений нет.
func (s *Storage) RecomputeOrderStatus(ctx context.Context, orgID, orderID string, aggregate func(statuses []string) string) (RecomputeResult, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return RecomputeResult{}, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var previous string
	err = tx.QueryRow(ctx, `
SELECT fulfillment_status FROM orders
WHERE org_id = $1 AND id = $2
FOR UPDATE
`, orgID, orderID).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		// Заказ удалён конкурентно — пересчитывать нечего.
		return RecomputeResult{Found: false}, nil
	}
	if err != nil {
		return RecomputeResult{}, errors.Wrap(err, "select order for update")
	}

	rows, err := tx.Query(ctx, `
SELECT status FROM fulfillments
WHERE org_id = $1 AND order_id = $2
`, orgID, orderID)
	if err != nil {
		return RecomputeResult{}, errors.Wrap(err, "select fulfillment statuses")
	}
	var statuses []string
	for rows.Next() {
		var st string
		if err := rows.Scan(&st); err != nil {
			rows.Close()
			return RecomputeResult{}, errors.Wrap(err, "scan fulfillment status")
		}
		statuses = append(statuses, st)
	}
	rows.Close()
	if rows.Err() != nil {
		return RecomputeResult{}, errors.Wrap(rows.Err(), "rows")
	}

	status := aggregate(statuses)
	if _, err := tx.Exec(ctx, `
UPDATE orders SET fulfillment_status = $3, updated_at = now()
WHERE org_id = $1 AND id = $2
`, orgID, orderID, status); err != nil {
		return RecomputeResult{}, errors.Wrap(err, "update order status")
	}

	if err := tx.Commit(ctx); err != nil {
		return RecomputeResult{}, errors.Wrap(err, "commit tx")
	}

	return RecomputeResult{
		Found:    true,
		Changed:  status != previous,
		Previous: previous,
		Status:   status,
	}, nil
}
