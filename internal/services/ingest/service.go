package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/ShipRollup/internal/cache"
	"github.com/BearBump/ShipRollup/internal/ident"
	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	GetTracking(ctx context.Context, orgID, trackingID string) (*models.Tracking, error)
	GetEventByHash(ctx context.Context, orgID, eventHash string) (*models.TrackingEvent, error)
	// ApplyEvent атомарно (в одной транзакции) вставляет событие и, если оно
	// новее текущего last_event_at трекинга, двигает его статус.
	// created=false означает, что событие с таким хэшем уже было (дубликат).
	ApplyEvent(ctx context.Context, ev *models.TrackingEvent, newStatus string, hasStatus bool) (*models.TrackingEvent, bool, error)
	ListTrackingEvents(ctx context.Context, orgID, trackingID string, limit, offset int) ([]*models.TrackingEvent, error)
}

type EventInput struct {
	EventTime        time.Time
	EventCode        string
	EventDescription *string
	EventCity        *string
	EventState       *string
	EventCountry     *string
	EventZip         *string
	Source           string
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

// DedupKey — детерминированный отпечаток события: sha256 от
// orgID + trackingID + канонического UTC-времени + кода события.
// Стабилен между рестартами и не зависит от порядка доставки.
func DedupKey(orgID, trackingID string, eventTime time.Time, eventCode string) string {
	base := orgID + trackingID + eventTime.UTC().Format(time.RFC3339Nano) + eventCode
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])
}

// IngestEvent принимает событие перевозчика. Повторная доставка того же
// семантического события (org, tracking, время, код) возвращает уже
// сохранённую запись и не имеет побочных эффектов.
func (s *Service) IngestEvent(ctx context.Context, orgID, trackingID string, in EventInput) (*models.TrackingEvent, error) {
	if in.EventTime.IsZero() {
		return nil, errors.Wrap(models.ErrInvalid, "eventTime is required")
	}
	if in.EventCode == "" {
		return nil, errors.Wrap(models.ErrInvalid, "eventCode is required")
	}
	if in.Source == "" {
		in.Source = models.EventSourceOther
	}

	if _, err := s.repo.GetTracking(ctx, orgID, trackingID); err != nil {
		return nil, err
	}

	hash := DedupKey(orgID, trackingID, in.EventTime, in.EventCode)

	if existing, err := s.repo.GetEventByHash(ctx, orgID, hash); err == nil {
		return existing, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	ev := &models.TrackingEvent{
		ID:               s.ids.Allocate(ident.PrefixEvent),
		OrgID:            orgID,
		TrackingID:       trackingID,
		EventTime:        in.EventTime.UTC(),
		EventCode:        in.EventCode,
		EventDescription: in.EventDescription,
		EventCity:        in.EventCity,
		EventState:       in.EventState,
		EventCountry:     in.EventCountry,
		EventZip:         in.EventZip,
		Source:           in.Source,
		EventHash:        hash,
	}

	status, hasStatus := Classify(in.EventCode)
	stored, created, err := s.repo.ApplyEvent(ctx, ev, status, hasStatus)
	if err != nil {
		return nil, err
	}
	if !created {
		// Конкурентная доставка дубликата: выиграла другая запись.
		return stored, nil
	}

	slog.Info("tracking event ingested",
		"org_id", orgID, "tracking_id", trackingID, "event_code", in.EventCode)

	s.refreshTrackingCache(ctx, orgID, trackingID)
	return stored, nil
}

func (s *Service) ListEvents(ctx context.Context, orgID, trackingID string, limit, offset int) ([]*models.TrackingEvent, error) {
	if _, err := s.repo.GetTracking(ctx, orgID, trackingID); err != nil {
		return nil, err
	}
	return s.repo.ListTrackingEvents(ctx, orgID, trackingID, limit, offset)
}

func (s *Service) refreshTrackingCache(ctx context.Context, orgID, trackingID string) {
	if s.cache == nil || s.currentTTL <= 0 {
		return
	}
	t, err := s.repo.GetTracking(ctx, orgID, trackingID)
	if err != nil {
		return
	}
	b, _ := json.Marshal(t)
	_ = s.cache.Set(ctx, currentKey(orgID, trackingID), b, s.currentTTL)
}

func currentKey(orgID, trackingID string) string {
	return fmt.Sprintf("tracking:%s:%s:current", orgID, trackingID)
}
