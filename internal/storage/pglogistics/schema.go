package pglogistics

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS organizations (
  id TEXT PRIMARY KEY,
  external_id TEXT NULL,
  name TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS websites (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
  code TEXT NOT NULL,
  name TEXT NOT NULL,
  platform TEXT NOT NULL,
  domain TEXT NULL,
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (org_id, code)
)`,
		`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  website_id TEXT NOT NULL,
  external_order_id TEXT NOT NULL,
  external_order_number TEXT NULL,
  status TEXT NOT NULL,
  financial_status TEXT NOT NULL,
  fulfillment_status TEXT NOT NULL,
  customer_email TEXT NULL,
  order_total TEXT NOT NULL DEFAULT '0',
  currency TEXT NULL,
  order_created_at TIMESTAMPTZ NULL,
  order_updated_at TIMESTAMPTZ NULL,
  ingested_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (org_id, website_id, external_order_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_org_ingested ON orders(org_id, ingested_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  external_line_item_id TEXT NULL,
  sku TEXT NULL,
  name TEXT NULL,
  quantity INT NULL,
  price TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
		`
CREATE TABLE IF NOT EXISTS fulfillments (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  external_fulfillment_id TEXT NOT NULL,
  status TEXT NOT NULL,
  carrier TEXT NULL,
  service_level TEXT NULL,
  shipped_at TIMESTAMPTZ NULL,
  delivered_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_fulfillments_org_order ON fulfillments(org_id, order_id)`,
		`
CREATE TABLE IF NOT EXISTS tracking (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  fulfillment_id TEXT NOT NULL REFERENCES fulfillments(id) ON DELETE CASCADE,
  tracking_number TEXT NOT NULL,
  carrier TEXT NULL,
  tracking_url TEXT NULL,
  status TEXT NOT NULL,
  is_primary BOOLEAN NOT NULL DEFAULT FALSE,
  last_event_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (fulfillment_id, tracking_number)
)`,
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id TEXT PRIMARY KEY,
  org_id TEXT NOT NULL,
  tracking_id TEXT NOT NULL REFERENCES tracking(id) ON DELETE CASCADE,
  event_time TIMESTAMPTZ NOT NULL,
  event_code TEXT NOT NULL,
  event_description TEXT NULL,
  event_city TEXT NULL,
  event_state TEXT NULL,
  event_country TEXT NULL,
  event_zip TEXT NULL,
  source TEXT NOT NULL,
  event_hash TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_tracking_time ON tracking_events(org_id, tracking_id, event_time DESC)`,
		// Дедупликация событий: один event_hash на организацию.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tracking_events_dedup ON tracking_events(org_id, event_hash)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
