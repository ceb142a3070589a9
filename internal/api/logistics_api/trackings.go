package logistics_api

import (
	"net/http"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/services/trackings"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/go-chi/chi/v5"
)

type trackingJSON struct {
	ID             string     `json:"id"`
	OrgID          string     `json:"orgId"`
	FulfillmentID  string     `json:"fulfillmentId"`
	TrackingNumber string     `json:"trackingNumber"`
	Carrier        *string    `json:"carrier,omitempty"`
	TrackingURL    *string    `json:"trackingUrl,omitempty"`
	Status         string     `json:"status"`
	IsPrimary      bool       `json:"isPrimary"`
	LastEventAt    *time.Time `json:"lastEventAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func toTrackingJSON(t *models.Tracking) trackingJSON {
	return trackingJSON{
		ID:             t.ID,
		OrgID:          t.OrgID,
		FulfillmentID:  t.FulfillmentID,
		TrackingNumber: t.TrackingNumber,
		Carrier:        t.Carrier,
		TrackingURL:    t.TrackingURL,
		Status:         t.Status,
		IsPrimary:      t.IsPrimary,
		LastEventAt:    t.LastEventAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

type createTrackingRequest struct {
	TrackingNumber string  `json:"trackingNumber"`
	Carrier        *string `json:"carrier"`
	TrackingURL    *string `json:"trackingUrl"`
	IsPrimary      bool    `json:"isPrimary"`
}

func (a *API) createTracking(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req createTrackingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := a.trackings.CreateTracking(r.Context(), orgID, chi.URLParam(r, "fulfillmentId"), trackings.TrackingCreateInput{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		TrackingURL:    req.TrackingURL,
		IsPrimary:      req.IsPrimary,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTrackingJSON(t))
}

func (a *API) getTracking(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	t, err := a.trackings.GetTracking(r.Context(), orgID, chi.URLParam(r, "trackingId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackingJSON(t))
}

type updateTrackingRequest struct {
	TrackingNumber string  `json:"trackingNumber"`
	Carrier        *string `json:"carrier"`
	TrackingURL    *string `json:"trackingUrl"`
	Status         string  `json:"status"`
	IsPrimary      bool    `json:"isPrimary"`
}

// updateTracking — полная замена (PUT); непереданные опциональные поля
// очищаются.
func (a *API) updateTracking(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req updateTrackingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := a.trackings.UpdateTracking(r.Context(), orgID, chi.URLParam(r, "trackingId"), trackings.TrackingUpdateInput{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		TrackingURL:    req.TrackingURL,
		Status:         req.Status,
		IsPrimary:      req.IsPrimary,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackingJSON(t))
}

type patchTrackingRequest struct {
	Carrier     *string `json:"carrier"`
	TrackingURL *string `json:"trackingUrl"`
	Status      *string `json:"status"`
	IsPrimary   *bool   `json:"isPrimary"`
}

func (a *API) patchTracking(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req patchTrackingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := a.trackings.PatchTracking(r.Context(), orgID, chi.URLParam(r, "trackingId"), trackings.TrackingPatch{
		Carrier:     req.Carrier,
		TrackingURL: req.TrackingURL,
		Status:      req.Status,
		IsPrimary:   req.IsPrimary,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackingJSON(t))
}

func (a *API) deleteTracking(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	if err := a.trackings.DeleteTracking(r.Context(), orgID, chi.URLParam(r, "trackingId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listTrackings(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	q := r.URL.Query()
	f := pglogistics.TrackingFilter{
		Status:         q.Get("status"),
		Carrier:        q.Get("carrier"),
		TrackingNumber: q.Get("trackingNumber"),
		From:           timeParam(r, "from"),
		To:             timeParam(r, "to"),
	}
	ts, err := a.trackings.ListTrackings(r.Context(), orgID, chi.URLParam(r, "fulfillmentId"), f, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]trackingJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTrackingJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}
