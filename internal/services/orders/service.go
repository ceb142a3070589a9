package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/ShipRollup/internal/ident"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/pkg/errors"
)

type Repository interface {
	GetOrder(ctx context.Context, orgID, orderID string) (*models.Order, error)
	GetOrderByExternalID(ctx context.Context, orgID, websiteID, externalOrderID string) (*models.Order, error)
	InsertOrder(ctx context.Context, o *models.Order) (*models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) (*models.Order, error)
	DeleteOrder(ctx context.Context, orgID, orderID string) error
	ListOrders(ctx context.Context, orgID string, f pglogistics.OrderFilter, limit, offset int) ([]*models.Order, error)

	GetWebsite(ctx context.Context, orgID, websiteID string) (*models.Website, error)
}

type OrderItemInput struct {
	ExternalLineItemID *string
	SKU                *string
	Name               *string
	Quantity           *int32
	Price              *string
}

type OrderCreateInput struct {
	WebsiteID           string
	ExternalOrderID     string
	ExternalOrderNumber *string
	Status              string
	FinancialStatus     string
	CustomerEmail       *string
	OrderTotal          string
	Currency            *string
	OrderCreatedAt      *time.Time
	OrderUpdatedAt      *time.Time
	Items               []OrderItemInput
}

// OrderUpdateInput — полная замена изменяемых полей заказа (PUT).
// Непереданные опциональные поля очищаются. Website, externalOrderId и
// агрегированный fulfillment_status через update не меняются.
type OrderUpdateInput struct {
	ExternalOrderNumber *string
	Status              string
	FinancialStatus     string
	CustomerEmail       *string
	OrderTotal          string
	Currency            *string
	OrderCreatedAt      *time.Time
	OrderUpdatedAt      *time.Time
}

type OrderPatch struct {
	ExternalOrderNumber *string
	Status              *string
	FinancialStatus     *string
	CustomerEmail       *string
	OrderTotal          *string
	Currency            *string
	OrderCreatedAt      *time.Time
	OrderUpdatedAt      *time.Time
}

type Service struct {
	repo Repository
	ids  *ident.Allocator
}

func New(repo Repository, ids *ident.Allocator) *Service {
	return &Service{repo: repo, ids: ids}
}

// CreateOrder идемпотентен по (org, website, externalOrderId): повторная
// загрузка того же внешнего заказа возвращает уже сохранённый.
func (s *Service) CreateOrder(ctx context.Context, orgID string, in OrderCreateInput) (*models.Order, error) {
	if in.WebsiteID == "" {
		return nil, errors.Wrap(models.ErrInvalid, "websiteId is required")
	}
	if in.ExternalOrderID == "" {
		return nil, errors.Wrap(models.ErrInvalid, "externalOrderId is required")
	}
	if in.Status == "" {
		in.Status = models.OrderStatusCreated
	}
	if in.FinancialStatus == "" {
		in.FinancialStatus = models.FinancialStatusUnknown
	}
	if in.OrderTotal == "" {
		in.OrderTotal = "0"
	}

	if _, err := s.repo.GetWebsite(ctx, orgID, in.WebsiteID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetOrderByExternalID(ctx, orgID, in.WebsiteID, in.ExternalOrderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	o := &models.Order{
		ID:                  s.ids.Allocate(ident.PrefixOrder),
		OrgID:               orgID,
		WebsiteID:           in.WebsiteID,
		ExternalOrderID:     in.ExternalOrderID,
		ExternalOrderNumber: in.ExternalOrderNumber,
		Status:              in.Status,
		FinancialStatus:     in.FinancialStatus,
		FulfillmentStatus:   models.OverallStatusUnfulfilled,
		CustomerEmail:       in.CustomerEmail,
		OrderTotal:          in.OrderTotal,
		Currency:            in.Currency,
		OrderCreatedAt:      in.OrderCreatedAt,
		OrderUpdatedAt:      in.OrderUpdatedAt,
	}
	for _, it := range in.Items {
		o.Items = append(o.Items, &models.OrderItem{
			ID:                 s.ids.Allocate(ident.PrefixOrderItem),
			OrderID:            o.ID,
			ExternalLineItemID: it.ExternalLineItemID,
			SKU:                it.SKU,
			Name:               it.Name,
			Quantity:           it.Quantity,
			Price:              it.Price,
		})
	}

	out, err := s.repo.InsertOrder(ctx, o)
	if err != nil {
		return nil, err
	}

	slog.Info("order ingested",
		"org_id", orgID, "order_id", out.ID, "external_order_id", in.ExternalOrderID)
	return out, nil
}

func (s *Service) GetOrder(ctx context.Context, orgID, orderID string) (*models.Order, error) {
	return s.repo.GetOrder(ctx, orgID, orderID)
}

func (s *Service) UpdateOrder(ctx context.Context, orgID, orderID string, in OrderUpdateInput) (*models.Order, error) {
	if in.Status == "" {
		return nil, errors.Wrap(models.ErrInvalid, "status is required")
	}
	if in.FinancialStatus == "" {
		return nil, errors.Wrap(models.ErrInvalid, "financialStatus is required")
	}
	if in.OrderTotal == "" {
		in.OrderTotal = "0"
	}

	o, err := s.repo.GetOrder(ctx, orgID, orderID)
	if err != nil {
		return nil, err
	}

	o.ExternalOrderNumber = in.ExternalOrderNumber
	o.Status = in.Status
	o.FinancialStatus = in.FinancialStatus
	o.CustomerEmail = in.CustomerEmail
	o.OrderTotal = in.OrderTotal
	o.Currency = in.Currency
	o.OrderCreatedAt = in.OrderCreatedAt
	o.OrderUpdatedAt = in.OrderUpdatedAt

	return s.repo.UpdateOrder(ctx, o)
}

// PatchOrder меняет только переданные поля. Агрегированный fulfillment_status
// через patch не меняется: его пересчитывает только rollup.
func (s *Service) PatchOrder(ctx context.Context, orgID, orderID string, p OrderPatch) (*models.Order, error) {
	o, err := s.repo.GetOrder(ctx, orgID, orderID)
	if err != nil {
		return nil, err
	}

	if p.ExternalOrderNumber != nil {
		o.ExternalOrderNumber = p.ExternalOrderNumber
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.FinancialStatus != nil {
		o.FinancialStatus = *p.FinancialStatus
	}
	if p.CustomerEmail != nil {
		o.CustomerEmail = p.CustomerEmail
	}
	if p.OrderTotal != nil {
		o.OrderTotal = *p.OrderTotal
	}
	if p.Currency != nil {
		o.Currency = p.Currency
	}
	if p.OrderCreatedAt != nil {
		o.OrderCreatedAt = p.OrderCreatedAt
	}
	if p.OrderUpdatedAt != nil {
		o.OrderUpdatedAt = p.OrderUpdatedAt
	}

	return s.repo.UpdateOrder(ctx, o)
}

func (s *Service) DeleteOrder(ctx context.Context, orgID, orderID string) error {
	return s.repo.DeleteOrder(ctx, orgID, orderID)
}

func (s *Service) ListOrders(ctx context.Context, orgID string, f pglogistics.OrderFilter, limit, offset int) ([]*models.Order, error) {
	return s.repo.ListOrders(ctx, orgID, f, limit, offset)
}
