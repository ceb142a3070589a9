package pglogistics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGLogistics_RepoFlow(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "shiprollup_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/shiprollup_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	org, err := st.InsertOrganization(ctx, &models.Organization{ID: "ORG000000001", Name: "Acme", Status: models.OrgStatusActive})
	require.NoError(t, err)

	site, err := st.InsertWebsite(ctx, &models.Website{
		ID: "WEB000000001", OrgID: org.ID, Code: "shop", Name: "Shop",
		Platform: models.PlatformShopify, Status: models.OrgStatusActive,
	})
	require.NoError(t, err)

	order, err := st.InsertOrder(ctx, &models.Order{
		ID: "ORD000000001", OrgID: org.ID, WebsiteID: site.ID, ExternalOrderID: "1001",
		Status: models.OrderStatusCreated, FinancialStatus: models.FinancialStatusUnknown,
		FulfillmentStatus: models.OverallStatusUnfulfilled, OrderTotal: "10.00",
		Items: []*models.OrderItem{{ID: "ITM000000001", OrderID: "ORD000000001"}},
	})
	require.NoError(t, err)

	got, err := st.GetOrderByExternalID(ctx, org.ID, site.ID, "1001")
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 1)

	// Чужая организация заказ не видит.
	_, err = st.GetOrder(ctx, "ORG000000002", order.ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	ful, err := st.InsertFulfillment(ctx, &models.Fulfillment{
		ID: "FUL000000001", OrgID: org.ID, OrderID: order.ID,
		ExternalFulfillmentID: "EXT-F1", Status: models.FulfillmentStatusCreated,
	})
	require.NoError(t, err)

	aggregate := func(statuses []string) string {
		for _, s := range statuses {
			if s == models.FulfillmentStatusDelivered {
				return models.OverallStatusFulfilled
			}
		}
		return models.OverallStatusUnfulfilled
	}

	res, err := st.RecomputeOrderStatus(ctx, org.ID, order.ID, aggregate)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.False(t, res.Changed)
	require.Equal(t, models.OverallStatusUnfulfilled, res.Status)

	ful.Status = models.FulfillmentStatusDelivered
	_, err = st.UpdateFulfillment(ctx, ful)
	require.NoError(t, err)

	res, err = st.RecomputeOrderStatus(ctx, org.ID, order.ID, aggregate)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, models.OverallStatusUnfulfilled, res.Previous)
	require.Equal(t, models.OverallStatusFulfilled, res.Status)

	got, err = st.GetOrder(ctx, org.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OverallStatusFulfilled, got.FulfillmentStatus)

	// Пересчёт несуществующего заказа — не ошибка.
	res, err = st.RecomputeOrderStatus(ctx, org.ID, "ORD000000999", aggregate)
	require.NoError(t, err)
	require.False(t, res.Found)

	trk, err := st.InsertTracking(ctx, &models.Tracking{
		ID: "TRK000000001", OrgID: org.ID, FulfillmentID: ful.ID,
		TrackingNumber: "1Z999", Status: models.TrackingStatusUnknown,
	})
	require.NoError(t, err)

	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ev1 := &models.TrackingEvent{
		ID: "EVT000000001", OrgID: org.ID, TrackingID: trk.ID,
		EventTime: t1, EventCode: "IN_TRANSIT",
		Source: models.EventSourceCarrier, EventHash: "hash-1",
	}
	stored, created, err := st.ApplyEvent(ctx, ev1, models.TrackingStatusInTransit, true)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "EVT000000001", stored.ID)

	// Повторная вставка с тем же хэшем возвращает первую запись.
	dup := &models.TrackingEvent{
		ID: "EVT000000002", OrgID: org.ID, TrackingID: trk.ID,
		EventTime: t1, EventCode: "IN_TRANSIT",
		Source: models.EventSourceCarrier, EventHash: "hash-1",
	}
	stored, created, err = st.ApplyEvent(ctx, dup, models.TrackingStatusInTransit, true)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "EVT000000001", stored.ID)

	trkGot, err := st.GetTracking(ctx, org.ID, trk.ID)
	require.NoError(t, err)
	require.Equal(t, models.TrackingStatusInTransit, trkGot.Status)
	require.NotNil(t, trkGot.LastEventAt)
	require.WithinDuration(t, t1, *trkGot.LastEventAt, time.Second)

	// Событие со старым временем сохраняется, но статус не откатывает.
	t0 := t1.Add(-time.Hour)
	late := &models.TrackingEvent{
		ID: "EVT000000003", OrgID: org.ID, TrackingID: trk.ID,
		EventTime: t0, EventCode: "SHIPPED",
		Source: models.EventSourceCarrier, EventHash: "hash-0",
	}
	_, created, err = st.ApplyEvent(ctx, late, models.TrackingStatusInTransit, true)
	require.NoError(t, err)
	require.True(t, created)

	trkGot, err = st.GetTracking(ctx, org.ID, trk.ID)
	require.NoError(t, err)
	require.Equal(t, models.TrackingStatusInTransit, trkGot.Status)
	require.WithinDuration(t, t1, *trkGot.LastEventAt, time.Second)

	// Более позднее событие двигает и статус, и last_event_at.
	t2 := t1.Add(time.Hour)
	fresh := &models.TrackingEvent{
		ID: "EVT000000004", OrgID: org.ID, TrackingID: trk.ID,
		EventTime: t2, EventCode: "DELIVERED",
		Source: models.EventSourceCarrier, EventHash: "hash-2",
	}
	_, created, err = st.ApplyEvent(ctx, fresh, models.TrackingStatusDelivered, true)
	require.NoError(t, err)
	require.True(t, created)

	trkGot, err = st.GetTracking(ctx, org.ID, trk.ID)
	require.NoError(t, err)
	require.Equal(t, models.TrackingStatusDelivered, trkGot.Status)
	require.WithinDuration(t, t2, *trkGot.LastEventAt, time.Second)

	evs, err := st.ListTrackingEvents(ctx, org.ID, trk.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	// Сортировка от свежих к старым.
	require.Equal(t, "EVT000000004", evs[0].ID)
	require.Equal(t, "EVT000000003", evs[2].ID)

	// Хэш дедупа скоупится организацией.
	_, err = st.GetEventByHash(ctx, "ORG000000002", "hash-1")
	require.ErrorIs(t, err, models.ErrNotFound)

	// Конкурентные мутации: каждая горутина меняет свой fulfillment и
	// пересчитывает агрегат. FOR UPDATE сериализует пересчёты на строке заказа,
	// итог обязан совпасть с агрегатом финального набора статусов.
	extra := []string{"FUL000000002", "FUL000000003", "FUL000000004"}
	for _, id := range extra {
		_, err = st.InsertFulfillment(ctx, &models.Fulfillment{
			ID: id, OrgID: org.ID, OrderID: order.ID,
			ExternalFulfillmentID: "EXT-F" + id[len(id)-1:],
			Status:                models.FulfillmentStatusCreated,
		})
		require.NoError(t, err)
	}

	anyDelivered := func(statuses []string) string {
		for _, s := range statuses {
			if s == models.FulfillmentStatusDelivered {
				return models.OverallStatusFulfilled
			}
		}
		return models.OverallStatusUnfulfilled
	}

	targets := map[string]string{
		ful.ID:         models.FulfillmentStatusShipped,
		"FUL000000002": models.FulfillmentStatusCancelled,
		"FUL000000003": models.FulfillmentStatusCreated,
		"FUL000000004": models.FulfillmentStatusShipped,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(targets))
	for id, status := range targets {
		wg.Add(1)
		go func(id, status string) {
			defer wg.Done()
			f, err := st.GetFulfillment(ctx, org.ID, id)
			if err != nil {
				errCh <- err
				return
			}
			f.Status = status
			if _, err := st.UpdateFulfillment(ctx, f); err != nil {
				errCh <- err
				return
			}
			if _, err := st.RecomputeOrderStatus(ctx, org.ID, order.ID, anyDelivered); err != nil {
				errCh <- err
			}
		}(id, status)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	// Финальный набор без DELIVERED, агрегат должен уйти с FULFILLED.
	fin, err := st.ListFulfillments(ctx, org.ID, order.ID, FulfillmentFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, fin, 4)
	var finalStatuses []string
	for _, f := range fin {
		require.Equal(t, targets[f.ID], f.Status)
		finalStatuses = append(finalStatuses, f.Status)
	}

	got, err = st.GetOrder(ctx, org.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, anyDelivered(finalStatuses), got.FulfillmentStatus)
	require.Equal(t, models.OverallStatusUnfulfilled, got.FulfillmentStatus)
}
