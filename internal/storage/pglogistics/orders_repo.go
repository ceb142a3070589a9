package pglogistics

import (
	"context"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const orderColumns = `
  id, org_id, website_id, external_order_id, external_order_number,
  status, financial_status, fulfillment_status, customer_email,
  order_total, currency, order_created_at, order_updated_at,
  ingested_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	if err := row.Scan(
		&o.ID, &o.OrgID, &o.WebsiteID, &o.ExternalOrderID, &o.ExternalOrderNumber,
		&o.Status, &o.FinancialStatus, &o.FulfillmentStatus, &o.CustomerEmail,
		&o.OrderTotal, &o.Currency, &o.OrderCreatedAt, &o.OrderUpdatedAt,
		&o.IngestedAt, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Storage) GetOrder(ctx context.Context, orgID, orderID string) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE org_id = $1 AND id = $2
`, orgID, orderID)

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}

	items, err := s.listOrderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *Storage) GetOrderByExternalID(ctx context.Context, orgID, websiteID, externalOrderID string) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE org_id = $1 AND website_id = $2 AND external_order_id = $3
`, orgID, websiteID, externalOrderID)

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order by external id")
	}
	return o, nil
}

func (s *Storage) InsertOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
INSERT INTO orders (
  id, org_id, website_id, external_order_id, external_order_number,
  status, financial_status, fulfillment_status, customer_email,
  order_total, currency, order_created_at, order_updated_at,
  ingested_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now(), now(), now())
RETURNING `+orderColumns+`
`, o.ID, o.OrgID, o.WebsiteID, o.ExternalOrderID, o.ExternalOrderNumber,
		o.Status, o.FinancialStatus, o.FulfillmentStatus, o.CustomerEmail,
		o.OrderTotal, o.Currency, o.OrderCreatedAt, o.OrderUpdatedAt)

	out, err := scanOrder(row)
	if err != nil {
		return nil, errors.Wrap(err, "insert order")
	}

	for _, it := range o.Items {
		_, err := tx.Exec(ctx, `
INSERT INTO order_items (
  id, order_id, external_line_item_id, sku, name, quantity, price, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
`, it.ID, o.ID, it.ExternalLineItemID, it.SKU, it.Name, it.Quantity, it.Price)
		if err != nil {
			return nil, errors.Wrap(err, "insert order item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	out.Items = o.Items
	return out, nil
}

func (s *Storage) UpdateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `
UPDATE orders
SET external_order_number = $3, status = $4, financial_status = $5,
    fulfillment_status = $6, customer_email = $7, order_total = $8,
    currency = $9, order_created_at = $10, order_updated_at = $11,
    updated_at = now()
WHERE org_id = $1 AND id = $2
RETURNING `+orderColumns+`
`, o.OrgID, o.ID, o.ExternalOrderNumber, o.Status, o.FinancialStatus,
		o.FulfillmentStatus, o.CustomerEmail, o.OrderTotal,
		o.Currency, o.OrderCreatedAt, o.OrderUpdatedAt)

	out, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update order")
	}
	return out, nil
}

func (s *Storage) DeleteOrder(ctx context.Context, orgID, orderID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM orders WHERE org_id = $1 AND id = $2`, orgID, orderID)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

type OrderFilter struct {
	WebsiteID           string
	Status              string
	FinancialStatus     string
	FulfillmentStatus   string
	ExternalOrderID     string
	ExternalOrderNumber string
	From                *time.Time
	To                  *time.Time
}

func (s *Storage) ListOrders(ctx context.Context, orgID string, f OrderFilter, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE org_id = $1
  AND ($2 = '' OR website_id = $2)
  AND ($3 = '' OR status = $3)
  AND ($4 = '' OR financial_status = $4)
  AND ($5 = '' OR fulfillment_status = $5)
  AND ($6 = '' OR external_order_id ILIKE '%' || $6 || '%')
  AND ($7 = '' OR external_order_number ILIKE '%' || $7 || '%')
  AND ($8::timestamptz IS NULL OR ingested_at >= $8)
  AND ($9::timestamptz IS NULL OR ingested_at <= $9)
ORDER BY ingested_at DESC
LIMIT $10 OFFSET $11
`, orgID, f.WebsiteID, f.Status, f.FinancialStatus, f.FulfillmentStatus,
		f.ExternalOrderID, f.ExternalOrderNumber, f.From, f.To, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) listOrderItems(ctx context.Context, orderID string) ([]*models.OrderItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, order_id, external_line_item_id, sku, name, quantity, price, created_at, updated_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at ASC
`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select order items")
	}
	defer rows.Close()

	var out []*models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ExternalLineItemID, &it.SKU, &it.Name,
			&it.Quantity, &it.Price, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		out = append(out, &it)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
