package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  tracking_event_topic_name: "tracking.event.received"
  order_status_updated_topic_name: "order.fulfillment.updated"
redis:
  host: "localhost"
  port: 6379
shiprollup:
  http_addr: ":8080"
  kafka_consumer_group: "shiprollup-api"
  current_status_ttl_seconds: 600
  ingest_rate_limit_per_minute: 120
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "tracking.event.received", cfg.Kafka.TrackingEventTopicName)
	require.Equal(t, "order.fulfillment.updated", cfg.Kafka.OrderStatusUpdatedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.ShipRollup.HTTPAddr)
	require.Equal(t, 120, cfg.ShipRollup.IngestRateLimitPerMinute)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/cfg.yaml")
	require.Error(t, err)
}
