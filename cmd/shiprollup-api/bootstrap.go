package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/ShipRollup/config"
	"github.com/BearBump/ShipRollup/internal/api/logistics_api"
	"github.com/BearBump/ShipRollup/internal/broker/kafka"
	"github.com/BearBump/ShipRollup/internal/cache/rediscache"
	"github.com/BearBump/ShipRollup/internal/ident"
	"github.com/BearBump/ShipRollup/internal/services/fulfillments"
	"github.com/BearBump/ShipRollup/internal/services/ingest"
	"github.com/BearBump/ShipRollup/internal/services/orders"
	"github.com/BearBump/ShipRollup/internal/services/orgs"
	"github.com/BearBump/ShipRollup/internal/services/rollup"
	"github.com/BearBump/ShipRollup/internal/services/trackings"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
)

type shipRollupApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     shipRollupOpts
	api      *logistics_api.API
	ingest   *ingest.Service
	consumer *kafka.Consumer
	closeDB  func()
}

func mustBootstrapApp() *shipRollupApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.ShipRollup.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.ShipRollup.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "shiprollup-api"
	}
	topic := cfg.Kafka.TrackingEventTopicName
	if topic == "" {
		topic = "tracking.event.received"
	}
	outTopic := cfg.Kafka.OrderStatusUpdatedTopicName
	if outTopic == "" {
		outTopic = "order.fulfillment.updated"
	}

	cacheTTL := time.Duration(cfg.ShipRollup.CurrentStatusTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	ingestLimit := int64(cfg.ShipRollup.IngestRateLimitPerMinute)
	if ingestLimit <= 0 {
		ingestLimit = 600
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	rl := rediscache.NewRateLimiter(redisAddr)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	ids := ident.New(nil)

	rollupSvc := rollup.New(st, producer, outTopic)
	orgsSvc := orgs.New(st, ids)
	ordersSvc := orders.New(st, ids)
	fulfillmentsSvc := fulfillments.New(st, rollupSvc, ids)
	trackingsSvc := trackings.New(st, ids, rc, cacheTTL)
	ingestSvc := ingest.New(st, ids, rc, cacheTTL)

	api := logistics_api.New(orgsSvc, ordersSvc, fulfillmentsSvc, trackingsSvc, ingestSvc, rl, ingestLimit)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &shipRollupApp{
		ctx:    ctx,
		cancel: cancel,
		opts: shipRollupOpts{
			httpAddr:      httpAddr,
			swaggerPath:   swaggerPath,
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		api:      api,
		ingest:   ingestSvc,
		consumer: consumer,
		closeDB:  st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pglogistics.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pglogistics.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *shipRollupApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *shipRollupApp) Run() error {
	return runShipRollup(a.ctx, a.opts, a.api, a.ingest, a.consumer)
}
