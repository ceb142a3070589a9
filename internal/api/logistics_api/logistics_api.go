package logistics_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/services/fulfillments"
	"github.com/BearBump/ShipRollup/internal/services/ingest"
	"github.com/BearBump/ShipRollup/internal/services/orders"
	"github.com/BearBump/ShipRollup/internal/services/orgs"
	"github.com/BearBump/ShipRollup/internal/services/trackings"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// Заголовок, которым вызывающая сторона выбирает организацию.
// Все ручки, кроме /organizations, работают строго в её рамках.
const orgHeader = "X-Organization-Id"

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type API struct {
	orgs         *orgs.Service
	orders       *orders.Service
	fulfillments *fulfillments.Service
	trackings    *trackings.Service
	ingest       *ingest.Service

	limiter     RateLimiter
	ingestLimit int64
}

func New(
	orgsSvc *orgs.Service,
	ordersSvc *orders.Service,
	fulfillmentsSvc *fulfillments.Service,
	trackingsSvc *trackings.Service,
	ingestSvc *ingest.Service,
	limiter RateLimiter,
	ingestLimitPerMinute int64,
) *API {
	return &API{
		orgs:         orgsSvc,
		orders:       ordersSvc,
		fulfillments: fulfillmentsSvc,
		trackings:    trackingsSvc,
		ingest:       ingestSvc,
		limiter:      limiter,
		ingestLimit:  ingestLimitPerMinute,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/organizations", func(r chi.Router) {
		r.Post("/", a.createOrganization)
		r.Get("/", a.listOrganizations)
		r.Route("/{orgId}", func(r chi.Router) {
			r.Get("/", a.getOrganization)
			r.Patch("/", a.patchOrganization)
			r.Delete("/", a.deleteOrganization)

			r.Route("/websites", func(r chi.Router) {
				r.Post("/", a.createWebsite)
				r.Get("/", a.listWebsites)
				r.Get("/{websiteId}", a.getWebsite)
				r.Patch("/{websiteId}", a.patchWebsite)
				r.Delete("/{websiteId}", a.deleteWebsite)
			})
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", a.createOrder)
		r.Get("/", a.listOrders)
		r.Route("/{orderId}", func(r chi.Router) {
			r.Get("/", a.getOrder)
			r.Put("/", a.updateOrder)
			r.Patch("/", a.patchOrder)
			r.Delete("/", a.deleteOrder)

			r.Post("/fulfillments", a.createFulfillment)
			r.Get("/fulfillments", a.listFulfillments)
		})
	})

	r.Route("/fulfillments/{fulfillmentId}", func(r chi.Router) {
		r.Get("/", a.getFulfillment)
		r.Put("/", a.updateFulfillment)
		r.Patch("/", a.patchFulfillment)
		r.Delete("/", a.deleteFulfillment)

		r.Post("/tracking", a.createTracking)
		r.Get("/tracking", a.listTrackings)
	})

	r.Route("/tracking/{trackingId}", func(r chi.Router) {
		r.Get("/", a.getTracking)
		r.Put("/", a.updateTracking)
		r.Patch("/", a.patchTracking)
		r.Delete("/", a.deleteTracking)

		r.Post("/events", a.ingestEvent)
		r.Get("/events", a.listEvents)
	})

	return r
}

func orgIDFrom(r *http.Request) string {
	return r.Header.Get(orgHeader)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, models.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		slog.Error("request failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func requireOrg(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID := orgIDFrom(r)
	if orgID == "" {
		writeBadRequest(w, orgHeader+" header is required")
		return "", false
	}
	return orgID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid json body")
		return false
	}
	return true
}

func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	return limit, offset
}

func timeParam(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}
