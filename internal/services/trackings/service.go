package trackings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BearBump/ShipRollup/internal/cache"
	"github.com/BearBump/ShipRollup/internal/ident"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/pkg/errors"
)

type Repository interface {
	GetTracking(ctx context.Context, orgID, trackingID string) (*models.Tracking, error)
	GetTrackingByNumber(ctx context.Context, fulfillmentID, trackingNumber string) (*models.Tracking, error)
	InsertTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error)
	UpdateTracking(ctx context.Context, t *models.Tracking) (*models.Tracking, error)
	DeleteTracking(ctx context.Context, orgID, trackingID string) error
	ListTrackings(ctx context.Context, fulfillmentID string, f pglogistics.TrackingFilter, limit, offset int) ([]*models.Tracking, error)

	GetFulfillment(ctx context.Context, orgID, fulfillmentID string) (*models.Fulfillment, error)
}

type TrackingCreateInput struct {
	TrackingNumber string
	Carrier        *string
	TrackingURL    *string
	IsPrimary      bool
}

type TrackingPatch struct {
	Carrier     *string
	TrackingURL *string
	Status      *string
	IsPrimary   *bool
}

// TrackingUpdateInput — полная замена внешних полей трекинга (PUT).
// Непереданные опциональные поля очищаются. Статус остаётся за событиями,
// если явно не передан.
type TrackingUpdateInput struct {
	TrackingNumber string
	Carrier        *string
	TrackingURL    *string
	Status         string
	IsPrimary      bool
}

type Service struct {
	repo       Repository
	ids        *ident.Allocator
	cache      cache.BytesCache
	currentTTL time.Duration
}

func New(repo Repository, ids *ident.Allocator, c cache.BytesCache, currentTTL time.Duration) *Service {
	return &Service{repo: repo, ids: ids, cache: c, currentTTL: currentTTL}
}

// CreateTracking идемпотентен по (fulfillmentId, trackingNumber): повторная
// регистрация того же номера возвращает уже сохранённый трекинг.
func (s *Service) CreateTracking(ctx context.Context, orgID, fulfillmentID string, in TrackingCreateInput) (*models.Tracking, error) {
	if in.TrackingNumber == "" {
		return nil, errors.Wrap(models.ErrInvalid, "trackingNumber is required")
	}

	if _, err := s.repo.GetFulfillment(ctx, orgID, fulfillmentID); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetTrackingByNumber(ctx, fulfillmentID, in.TrackingNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return s.repo.InsertTracking(ctx, &models.Tracking{
		ID:             s.ids.Allocate(ident.PrefixTracking),
		OrgID:          orgID,
		FulfillmentID:  fulfillmentID,
		TrackingNumber: in.TrackingNumber,
		Carrier:        in.Carrier,
		TrackingURL:    in.TrackingURL,
		Status:         models.TrackingStatusUnknown,
		IsPrimary:      in.IsPrimary,
	})
}

// GetTracking читает "текущее состояние" из кэша; промах или битый JSON — не
// ошибка, просто идём в БД и перезаписываем кэш.
func (s *Service) GetTracking(ctx context.Context, orgID, trackingID string) (*models.Tracking, error) {
	if s.cache != nil && s.currentTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, currentKey(orgID, trackingID)); err == nil && ok {
			var t models.Tracking
			if json.Unmarshal(b, &t) == nil {
				return &t, nil
			}
		}
	}

	t, err := s.repo.GetTracking(ctx, orgID, trackingID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.currentTTL > 0 {
		b, _ := json.Marshal(t)
		_ = s.cache.Set(ctx, currentKey(orgID, trackingID), b, s.currentTTL)
	}
	return t, nil
}

func (s *Service) PatchTracking(ctx context.Context, orgID, trackingID string, p TrackingPatch) (*models.Tracking, error) {
	t, err := s.repo.GetTracking(ctx, orgID, trackingID)
	if err != nil {
		return nil, err
	}

	if p.Carrier != nil {
		t.Carrier = p.Carrier
	}
	if p.TrackingURL != nil {
		t.TrackingURL = p.TrackingURL
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.IsPrimary != nil {
		t.IsPrimary = *p.IsPrimary
	}

	out, err := s.repo.UpdateTracking(ctx, t)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.currentTTL > 0 {
		b, _ := json.Marshal(out)
		_ = s.cache.Set(ctx, currentKey(orgID, trackingID), b, s.currentTTL)
	}
	return out, nil
}

func (s *Service) UpdateTracking(ctx context.Context, orgID, trackingID string, in TrackingUpdateInput) (*models.Tracking, error) {
	if in.TrackingNumber == "" {
		return nil, errors.Wrap(models.ErrInvalid, "trackingNumber is required")
	}

	t, err := s.repo.GetTracking(ctx, orgID, trackingID)
	if err != nil {
		return nil, err
	}

	t.TrackingNumber = in.TrackingNumber
	t.Carrier = in.Carrier
	t.TrackingURL = in.TrackingURL
	t.IsPrimary = in.IsPrimary
	if in.Status != "" {
		t.Status = in.Status
	}

	out, err := s.repo.UpdateTracking(ctx, t)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.currentTTL > 0 {
		b, _ := json.Marshal(out)
		_ = s.cache.Set(ctx, currentKey(orgID, trackingID), b, s.currentTTL)
	}
	return out, nil
}

func (s *Service) DeleteTracking(ctx context.Context, orgID, trackingID string) error {
	if err := s.repo.DeleteTracking(ctx, orgID, trackingID); err != nil {
		return err
	}
	// Кэш текущего состояния чистим сразу, иначе GetTracking отдаёт удалённый
	// трекинг до истечения TTL.
	if s.cache != nil && s.currentTTL > 0 {
		_ = s.cache.Del(ctx, currentKey(orgID, trackingID))
	}
	return nil
}

func (s *Service) ListTrackings(ctx context.Context, orgID, fulfillmentID string, f pglogistics.TrackingFilter, limit, offset int) ([]*models.Tracking, error) {
	if _, err := s.repo.GetFulfillment(ctx, orgID, fulfillmentID); err != nil {
		return nil, err
	}
	return s.repo.ListTrackings(ctx, fulfillmentID, f, limit, offset)
}

func currentKey(orgID, trackingID string) string {
	return fmt.Sprintf("tracking:%s:%s:current", orgID, trackingID)
}
