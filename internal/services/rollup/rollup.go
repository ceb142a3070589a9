package rollup

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BearBump/ShipRollup/internal/broker/messages"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/pkg/errors"
)

type Repository interface {
	// RecomputeOrderStatus читает статусы fulfillment'ов заказа и пишет
	// агрегат в той же транзакции (заказ блокируется FOR UPDATE), чтобы не
	// записать агрегат, посчитанный по устаревшему набору детей.
	RecomputeOrderStatus(ctx context.Context, orgID, orderID string, aggregate func(statuses []string) string) (pglogistics.RecomputeResult, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	repo     Repository
	producer Producer
	topic    string
}

func New(repo Repository, producer Producer, topic string) *Service {
	return &Service{repo: repo, producer: producer, topic: topic}
}

// Aggregate — чистая функция от мультимножества статусов fulfillment'ов.
// Порядок веток фиксирован: пустой набор, все DELIVERED, все CANCELLED,
// хотя бы один SHIPPED/DELIVERED, иначе UNFULFILLED.
func Aggregate(statuses []string) string {
	if len(statuses) == 0 {
		return models.OverallStatusUnfulfilled
	}

	allDelivered := true
	allCancelled := true
	anyShipped := false
	for _, st := range statuses {
		if st != models.FulfillmentStatusDelivered {
			allDelivered = false
		}
		if st != models.FulfillmentStatusCancelled {
			allCancelled = false
		}
		if st == models.FulfillmentStatusShipped || st == models.FulfillmentStatusDelivered {
			anyShipped = true
		}
	}

	switch {
	case allDelivered:
		return models.OverallStatusFulfilled
	case allCancelled:
		return models.OverallStatusCancelled
	case anyShipped:
		return models.OverallStatusPartial
	default:
		return models.OverallStatusUnfulfilled
	}
}

// RecomputeOrder пересчитывает агрегированный статус заказа целиком.
// Отсутствующий заказ (удалён конкурентно) — не ошибка: пересчитывать нечего.
func (s *Service) RecomputeOrder(ctx context.Context, orgID, orderID string) (string, error) {
	res, err := s.repo.RecomputeOrderStatus(ctx, orgID, orderID, Aggregate)
	if err != nil {
		return "", errors.Wrap(err, "recompute order status")
	}
	if !res.Found {
		return "", nil
	}

	if res.Changed {
		s.publishStatusChanged(ctx, orgID, orderID, res)
	}
	return res.Status, nil
}

func (s *Service) publishStatusChanged(ctx context.Context, orgID, orderID string, res pglogistics.RecomputeResult) {
	if s.producer == nil || s.topic == "" {
		return
	}
	b, err := json.Marshal(messages.OrderFulfillmentUpdated{
		OrgID:          orgID,
		OrderID:        orderID,
		PreviousStatus: res.Previous,
		Status:         res.Status,
	})
	if err != nil {
		return
	}
	// Публикация — best effort: агрегат уже записан, падать из-за брокера нельзя.
	if err := s.producer.Publish(ctx, s.topic, []byte(orderID), b); err != nil {
		slog.Error("publish order status change", "order_id", orderID, "error", err.Error())
	}
}
