package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BearBump/ShipRollup/internal/api/logistics_api"
	"github.com/BearBump/ShipRollup/internal/ident"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/services/fulfillments"
	"github.com/BearBump/ShipRollup/internal/services/ingest"
	"github.com/BearBump/ShipRollup/internal/services/orders"
	"github.com/BearBump/ShipRollup/internal/services/orgs"
	"github.com/BearBump/ShipRollup/internal/services/rollup"
	"github.com/BearBump/ShipRollup/internal/services/trackings"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/stretchr/testify/require"
)

// fakeStore покрывает интерфейсы всех сервисов, чтобы поднять приложение без БД.
type fakeStore struct{}

func (fakeStore) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	return nil, models.ErrNotFound
}
func (fakeStore) InsertOrganization(ctx context.Context, o *models.Organization) (*models.Organization, error) {
	return o, nil
}
func (fakeStore) UpdateOrganization(ctx context.Context, o *models.Organization) (*models.Organization, error) {
	return o, nil
}
func (fakeStore) DeleteOrganization(ctx context.Context, orgID string) error { return nil }
func (fakeStore) ListOrganizations(ctx context.Context, externalID string, limit, offset int) ([]*models.Organization, error) {
	return nil, nil
}
func (fakeStore) GetWebsite(ctx context.Context, orgID, websiteID string) (*models.Website, error) {
	return nil, models.ErrNotFound
}
func (fakeStore) InsertWebsite(ctx context.Context, w *models.Website) (*models.Website, error) {
	return w, nil
}
func (fakeStore) UpdateWebsite(ctx context.Context, w *models.Website) (*models.Website, error) {
	return w, nil
}
func (fakeStore) DeleteWebsite(ctx context.Context, orgID, websiteID string) error { return nil }
func (fakeStore) ListWebsites(ctx context.Context, orgID string, limit, offset int) ([]*models.Website, error) {
	return nil, nil
}
func (fakeStore) GetOrder(ctx context.Context, orgID, orderID string) (*models.Order, error) {
	return nil, models.ErrNotFound
}
func (fakeStore) GetOrderByExternalID(ctx context.Context, orgID, websiteID, externalOrderID string) (*models.Order, error) {
	return nil, models.ErrNotFound
}
func (fakeStore) InsertOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	return o, nil
}
func (fakeStore) UpdateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	return o, nil
}
func (fakeStore) DeleteOrder(ctx context.Context, orgID, orderID string) error { return nil }
func (fakeStore) ListOrders(ctx context.Context, orgID string, f pglogistics.OrderFilter, limit, offset int) ([]*models.Order, error) {
	return nil, nil
}
func (fakeStore) GetFulfillment(ctx context.Context, orgID, fulfillmentID string) (*models.Fulfillment, error) {
	return nil, models.ErrNotFound
}
func (fakeStore) InsertFulfillment(ctx context.Context, f *models.Fulfillment) (*models.Fulfillment, error) {
	return f, nil
}
func (fakeStore) UpdateFulfillment(ctx context.Context, f *models.Fulfillment) (*models.Fulfillment, error) {
	return f, nil
}
func (fakeStore) DeleteFulfillment(ctx context.Context, orgID, fulfillmentID string) error {
	return nil
}
func (fakeStore) ListFulfillments(ctx context.Context, orgID, orderID string, f pglogistics.FulfillmentFilter, limit, offset int) ([]*models.Fulfillment, error) {
	return nil, nil
}
func (fakeStore) GetTracking(ctx context.Context, orgID, trackingID string) (*models.Tracking, error) {
	return nil, models.ErrNotFound
}
func (fakeStore) GetTrackingByNumber(ctx context.Context, fulfillmentID, trackingNumber string) (*models.Tracking, error) {
	return nil, models.ErrNotFound
}
func (fakeStore) InsertTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error) {
	return t, nil
}
func (fakeStore) UpdateTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error) {
	return t, nil
}
func (fakeStore) DeleteTracking(ctx context.Context, orgID, trackingID string) error { return nil }
func (fakeStore) ListTrackings(ctx context.Context, fulfillmentID string, f pglogistics.TrackingFilter, limit, offset int) ([]*models.Tracking, error) {
	return nil, nil
}
func (fakeStore) GetEventByHash(ctx context.Context, orgID, eventHash string) (*models.TrackingEvent, error) {
	return nil, models.ErrNotFound
}
func (fakeStore) ApplyEvent(ctx context.Context, ev *models.TrackingEvent, newStatus string, hasStatus bool) (*models.TrackingEvent, bool, error) {
	return ev, true, nil
}
func (fakeStore) ListTrackingEvents(ctx context.Context, orgID, trackingID string, limit, offset int) ([]*models.TrackingEvent, error) {
	return nil, nil
}
func (fakeStore) RecomputeOrderStatus(ctx context.Context, orgID, orderID string, aggregate func(statuses []string) string) (pglogistics.RecomputeResult, error) {
	return pglogistics.RecomputeResult{}, nil
}

type fakeConsumer struct{}

func (fakeConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestAPI() (*logistics_api.API, *ingest.Service) {
	st := fakeStore{}
	ids := ident.New(nil)
	rollupSvc := rollup.New(st, nil, "")
	ingestSvc := ingest.New(st, ids, nil, 0)
	return logistics_api.New(
		orgs.New(st, ids),
		orders.New(st, ids),
		fulfillments.New(st, rollupSvc, ids),
		trackings.New(st, ids, nil, 0),
		ingestSvc,
		nil, 0,
	), ingestSvc
}

func TestRunShipRollup_SwaggerAndHealthServed(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	api, ingestSvc := newTestAPI()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := shipRollupOpts{
		httpAddr:      "127.0.0.1:0",
		swaggerPath:   sw,
		topic:         "t",
		consumerGroup: "g",
		onListen:      func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runShipRollup(ctx, opts, api, ingestSvc, fakeConsumer{})
	}()

	httpAddr := <-addrCh

	resp, err := http.Get("http://" + httpAddr + "/swagger.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(body), "\"swagger\"")

	resp2, err := http.Get("http://" + httpAddr + "/healthz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, 200, resp2.StatusCode)

	cancel()

	select {
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting server to stop")
	case err := <-errCh:
		require.Error(t, err)
	}
}

func TestRunShipRollup_MissingSwagger(t *testing.T) {
	api, ingestSvc := newTestAPI()
	err := runShipRollup(context.Background(), shipRollupOpts{httpAddr: "127.0.0.1:0"}, api, ingestSvc, fakeConsumer{})
	require.Error(t, err)
}
