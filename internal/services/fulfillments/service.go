package fulfillments

import (
	"context"
	"time"

	"github.com/BearBump/ShipRollup/internal/ident"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/pkg/errors"
)

type Repository interface {
	GetFulfillment(ctx context.Context, orgID, fulfillmentID string) (*models.Fulfillment, error)
	InsertFulfillment(ctx context.Context, f *models.Fulfillment) (*models.Fulfillment, error)
	UpdateFulfillment(ctx context.Context, f *models.Fulfillment) (*models.Fulfillment, error)
	DeleteFulfillment(ctx context.Context, orgID, fulfillmentID string) error
	ListFulfillments(ctx context.Context, orgID, orderID string, f pglogistics.FulfillmentFilter, limit, offset int) ([]*models.Fulfillment, error)

	GetOrder(ctx context.Context, orgID, orderID string) (*models.Order, error)
}

// Rollup пересчитывает агрегированный статус заказа после мутации fulfillment'а.
type Rollup interface {
	RecomputeOrder(ctx context.Context, orgID, orderID string) (string, error)
}

type FulfillmentCreateInput struct {
	ExternalFulfillmentID string
	Status                string
	Carrier               *string
	ServiceLevel          *string
	ShippedAt             *time.Time
	DeliveredAt           *time.Time
}

// FulfillmentUpdateInput — полная замена полей fulfillment'а (PUT).
// Непереданные опциональные поля очищаются.
type FulfillmentUpdateInput struct {
	ExternalFulfillmentID string
	Status                string
	Carrier               *string
	ServiceLevel          *string
	ShippedAt             *time.Time
	DeliveredAt           *time.Time
}

type FulfillmentPatch struct {
	ExternalFulfillmentID *string
	Status                *string
	Carrier               *string
	ServiceLevel          *string
	ShippedAt             *time.Time
	DeliveredAt           *time.Time
}

type Service struct {
	repo   Repository
	rollup Rollup
	ids    *ident.Allocator
}

func New(repo Repository, rollup Rollup, ids *ident.Allocator) *Service {
	return &Service{repo: repo, rollup: rollup, ids: ids}
}

func (s *Service) CreateFulfillment(ctx context.Context, orgID, orderID string, in FulfillmentCreateInput) (*models.Fulfillment, error) {
	if in.ExternalFulfillmentID == "" {
		return nil, errors.Wrap(models.ErrInvalid, "externalFulfillmentId is required")
	}
	if in.Status == "" {
		in.Status = models.FulfillmentStatusCreated
	}

	if _, err := s.repo.GetOrder(ctx, orgID, orderID); err != nil {
		return nil, err
	}

	out, err := s.repo.InsertFulfillment(ctx, &models.Fulfillment{
		ID:                    s.ids.Allocate(ident.PrefixFulfillment),
		OrgID:                 orgID,
		OrderID:               orderID,
		ExternalFulfillmentID: in.ExternalFulfillmentID,
		Status:                in.Status,
		Carrier:               in.Carrier,
		ServiceLevel:          in.ServiceLevel,
		ShippedAt:             in.ShippedAt,
		DeliveredAt:           in.DeliveredAt,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.rollup.RecomputeOrder(ctx, orgID, orderID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) GetFulfillment(ctx context.Context, orgID, fulfillmentID string) (*models.Fulfillment, error) {
	return s.repo.GetFulfillment(ctx, orgID, fulfillmentID)
}

func (s *Service) UpdateFulfillment(ctx context.Context, orgID, fulfillmentID string, in FulfillmentUpdateInput) (*models.Fulfillment, error) {
	if in.ExternalFulfillmentID == "" {
		return nil, errors.Wrap(models.ErrInvalid, "externalFulfillmentId is required")
	}
	if in.Status == "" {
		return nil, errors.Wrap(models.ErrInvalid, "status is required")
	}

	f, err := s.repo.GetFulfillment(ctx, orgID, fulfillmentID)
	if err != nil {
		return nil, err
	}

	f.ExternalFulfillmentID = in.ExternalFulfillmentID
	f.Status = in.Status
	f.Carrier = in.Carrier
	f.ServiceLevel = in.ServiceLevel
	f.ShippedAt = in.ShippedAt
	f.DeliveredAt = in.DeliveredAt

	out, err := s.repo.UpdateFulfillment(ctx, f)
	if err != nil {
		return nil, err
	}

	if _, err := s.rollup.RecomputeOrder(ctx, orgID, out.OrderID); err != nil {
		return nil, err
	}
	return out, nil
}

// PatchFulfillment меняет только переданные поля и после записи пересчитывает
// агрегат заказа. Пересчёт идёт даже если статус не менялся: лишний проход
// дешевле пропущенного.
func (s *Service) PatchFulfillment(ctx context.Context, orgID, fulfillmentID string, p FulfillmentPatch) (*models.Fulfillment, error) {
	f, err := s.repo.GetFulfillment(ctx, orgID, fulfillmentID)
	if err != nil {
		return nil, err
	}

	if p.ExternalFulfillmentID != nil {
		f.ExternalFulfillmentID = *p.ExternalFulfillmentID
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.Carrier != nil {
		f.Carrier = p.Carrier
	}
	if p.ServiceLevel != nil {
		f.ServiceLevel = p.ServiceLevel
	}
	if p.ShippedAt != nil {
		f.ShippedAt = p.ShippedAt
	}
	if p.DeliveredAt != nil {
		f.DeliveredAt = p.DeliveredAt
	}

	out, err := s.repo.UpdateFulfillment(ctx, f)
	if err != nil {
		return nil, err
	}

	if _, err := s.rollup.RecomputeOrder(ctx, orgID, out.OrderID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeleteFulfillment(ctx context.Context, orgID, fulfillmentID string) error {
	f, err := s.repo.GetFulfillment(ctx, orgID, fulfillmentID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteFulfillment(ctx, orgID, fulfillmentID); err != nil {
		return err
	}

	// Удаление меняет мультимножество статусов — агрегат тоже пересчитываем.
	_, err = s.rollup.RecomputeOrder(ctx, orgID, f.OrderID)
	return err
}

func (s *Service) ListFulfillments(ctx context.Context, orgID, orderID string, f pglogistics.FulfillmentFilter, limit, offset int) ([]*models.Fulfillment, error) {
	return s.repo.ListFulfillments(ctx, orgID, orderID, f, limit, offset)
}
