package logistics_api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/services/ingest"
	"github.com/go-chi/chi/v5"
)

type trackingEventJSON struct {
	ID               string    `json:"id"`
	OrgID            string    `json:"orgId"`
	TrackingID       string    `json:"trackingId"`
	EventTime        time.Time `json:"eventTime"`
	EventCode        string    `json:"eventCode"`
	EventDescription *string   `json:"eventDescription,omitempty"`
	EventCity        *string   `json:"eventCity,omitempty"`
	EventState       *string   `json:"eventState,omitempty"`
	EventCountry     *string   `json:"eventCountry,omitempty"`
	EventZip         *string   `json:"eventZip,omitempty"`
	Source           string    `json:"source"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toTrackingEventJSON(e *models.TrackingEvent) trackingEventJSON {
	return trackingEventJSON{
		ID:               e.ID,
		OrgID:            e.OrgID,
		TrackingID:       e.TrackingID,
		EventTime:        e.EventTime,
		EventCode:        e.EventCode,
		EventDescription: e.EventDescription,
		EventCity:        e.EventCity,
		EventState:       e.EventState,
		EventCountry:     e.EventCountry,
		EventZip:         e.EventZip,
		Source:           e.Source,
		CreatedAt:        e.CreatedAt,
	}
}

type ingestEventRequest struct {
	EventTime        time.Time `json:"eventTime"`
	EventCode        string    `json:"eventCode"`
	EventDescription *string   `json:"eventDescription"`
	EventCity        *string   `json:"eventCity"`
	EventState       *string   `json:"eventState"`
	EventCountry     *string   `json:"eventCountry"`
	EventZip         *string   `json:"eventZip"`
	Source           string    `json:"source"`
}

// ingestEvent принимает событие перевозчика. Дубликат (тот же org, tracking,
// время, код) — это успех: возвращается уже сохранённая запись.
func (a *API) ingestEvent(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}

	if a.limiter != nil && a.ingestLimit > 0 {
		allowed, _, err := a.limiter.Allow(r.Context(), fmt.Sprintf("rl:ingest:%s", orgID), a.ingestLimit, time.Minute)
		if err == nil && !allowed {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "ingest rate limit exceeded"})
			return
		}
		// Недоступный redis не должен ронять приём событий.
	}

	var req ingestEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ev, err := a.ingest.IngestEvent(r.Context(), orgID, chi.URLParam(r, "trackingId"), ingest.EventInput{
		EventTime:        req.EventTime,
		EventCode:        req.EventCode,
		EventDescription: req.EventDescription,
		EventCity:        req.EventCity,
		EventState:       req.EventState,
		EventCountry:     req.EventCountry,
		EventZip:         req.EventZip,
		Source:           req.Source,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackingEventJSON(ev))
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	evs, err := a.ingest.ListEvents(r.Context(), orgID, chi.URLParam(r, "trackingId"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]trackingEventJSON, 0, len(evs))
	for _, e := range evs {
		out = append(out, toTrackingEventJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}
