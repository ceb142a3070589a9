package rollup

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/BearBump/ShipRollup/internal/broker/messages"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	statuses []string
	notFound bool
	res      pglogistics.RecomputeResult
	err      error

	gotOrgID   string
	gotOrderID string
}

func (f *fakeRepo) RecomputeOrderStatus(ctx context.Context, orgID, orderID string, aggregate func(statuses []string) string) (pglogistics.RecomputeResult, error) {
	f.gotOrgID = orgID
	f.gotOrderID = orderID
	if f.err != nil {
		return pglogistics.RecomputeResult{}, f.err
	}
	if f.notFound {
		return pglogistics.RecomputeResult{Found: false}, nil
	}
	if f.res.Found {
		return f.res, nil
	}
	// По умолчанию эмулируем найденный заказ: агрегируем переданные статусы.
	status := aggregate(f.statuses)
	return pglogistics.RecomputeResult{Found: true, Changed: true, Previous: "UNFULFILLED", Status: status}, nil
}

type fakeProducer struct {
	topic string
	key   []byte
	value []byte
	calls int
	err   error
}

func (f *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	f.calls++
	f.topic = topic
	f.key = key
	f.value = value
	return f.err
}

func TestAggregate(t *testing.T) {
	cases := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"empty", nil, models.OverallStatusUnfulfilled},
		{"single delivered", []string{"DELIVERED"}, models.OverallStatusFulfilled},
		{"all delivered", []string{"DELIVERED", "DELIVERED"}, models.OverallStatusFulfilled},
		{"mixed shipped delivered", []string{"SHIPPED", "DELIVERED"}, models.OverallStatusPartial},
		{"all cancelled", []string{"CANCELLED", "CANCELLED"}, models.OverallStatusCancelled},
		{"created only", []string{"CREATED"}, models.OverallStatusUnfulfilled},
		{"created and cancelled", []string{"CREATED", "CANCELLED"}, models.OverallStatusUnfulfilled},
		{"shipped only", []string{"SHIPPED"}, models.OverallStatusPartial},
		{"delivered and cancelled", []string{"DELIVERED", "CANCELLED"}, models.OverallStatusPartial},
		{"failed only", []string{"FAILED"}, models.OverallStatusUnfulfilled},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Aggregate(c.statuses))
		})
	}
}

// Агрегат — функция мультимножества: порядок статусов не важен.
func TestAggregate_OrderIndependent(t *testing.T) {
	require.Equal(t, Aggregate([]string{"SHIPPED", "CREATED", "DELIVERED"}),
		Aggregate([]string{"DELIVERED", "SHIPPED", "CREATED"}))
}

func TestRecomputeOrder_PublishesOnChange(t *testing.T) {
	r := &fakeRepo{statuses: []string{"DELIVERED"}}
	p := &fakeProducer{}
	s := New(r, p, "order.fulfillment.updated")

	status, err := s.RecomputeOrder(context.Background(), "ORG1", "ORD1")
	require.NoError(t, err)
	require.Equal(t, models.OverallStatusFulfilled, status)

	require.Equal(t, 1, p.calls)
	require.Equal(t, "order.fulfillment.updated", p.topic)
	require.Equal(t, []byte("ORD1"), p.key)

	var m messages.OrderFulfillmentUpdated
	require.NoError(t, json.Unmarshal(p.value, &m))
	require.Equal(t, "ORG1", m.OrgID)
	require.Equal(t, "ORD1", m.OrderID)
	require.Equal(t, "UNFULFILLED", m.PreviousStatus)
	require.Equal(t, "FULFILLED", m.Status)
}

func TestRecomputeOrder_NoPublishWhenUnchanged(t *testing.T) {
	r := &fakeRepo{res: pglogistics.RecomputeResult{Found: true, Changed: false, Previous: "PARTIAL", Status: "PARTIAL"}}
	p := &fakeProducer{}
	s := New(r, p, "order.fulfillment.updated")

	status, err := s.RecomputeOrder(context.Background(), "ORG1", "ORD1")
	require.NoError(t, err)
	require.Equal(t, "PARTIAL", status)
	require.Equal(t, 0, p.calls)
}

func TestRecomputeOrder_MissingOrderIsSilent(t *testing.T) {
	r := &fakeRepo{notFound: true}
	p := &fakeProducer{}
	s := New(r, p, "order.fulfillment.updated")

	status, err := s.RecomputeOrder(context.Background(), "ORG1", "GONE")
	require.NoError(t, err)
	require.Equal(t, "", status)
	require.Equal(t, 0, p.calls)
}

func TestRecomputeOrder_RepoError(t *testing.T) {
	want := errors.New("db down")
	s := New(&fakeRepo{err: want}, nil, "")
	_, err := s.RecomputeOrder(context.Background(), "ORG1", "ORD1")
	require.ErrorIs(t, err, want)
}

// Недоступный брокер не должен ломать пересчёт: агрегат уже записан.
func TestRecomputeOrder_PublishErrorIgnored(t *testing.T) {
	r := &fakeRepo{statuses: []string{"SHIPPED"}}
	p := &fakeProducer{err: errors.New("broker down")}
	s := New(r, p, "order.fulfillment.updated")

	status, err := s.RecomputeOrder(context.Background(), "ORG1", "ORD1")
	require.NoError(t, err)
	require.Equal(t, models.OverallStatusPartial, status)
	require.Equal(t, 1, p.calls)
}
