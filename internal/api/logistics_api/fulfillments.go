package logistics_api

import (
	"net/http"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/services/fulfillments"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/go-chi/chi/v5"
)

type fulfillmentJSON struct {
	ID                    string     `json:"id"`
	OrgID                 string     `json:"orgId"`
	OrderID               string     `json:"orderId"`
	ExternalFulfillmentID string     `json:"externalFulfillmentId"`
	Status                string     `json:"status"`
	Carrier               *string    `json:"carrier,omitempty"`
	ServiceLevel          *string    `json:"serviceLevel,omitempty"`
	ShippedAt             *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt           *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func toFulfillmentJSON(f *models.Fulfillment) fulfillmentJSON {
	return fulfillmentJSON{
		ID:                    f.ID,
		OrgID:                 f.OrgID,
		OrderID:               f.OrderID,
		ExternalFulfillmentID: f.ExternalFulfillmentID,
		Status:                f.Status,
		Carrier:               f.Carrier,
		ServiceLevel:          f.ServiceLevel,
		ShippedAt:             f.ShippedAt,
		DeliveredAt:           f.DeliveredAt,
		CreatedAt:             f.CreatedAt,
		UpdatedAt:             f.UpdatedAt,
	}
}

type createFulfillmentRequest struct {
	ExternalFulfillmentID string     `json:"externalFulfillmentId"`
	Status                string     `json:"status"`
	Carrier               *string    `json:"carrier"`
	ServiceLevel          *string    `json:"serviceLevel"`
	ShippedAt             *time.Time `json:"shippedAt"`
	DeliveredAt           *time.Time `json:"deliveredAt"`
}

func (a *API) createFulfillment(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req createFulfillmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := a.fulfillments.CreateFulfillment(r.Context(), orgID, chi.URLParam(r, "orderId"), fulfillments.FulfillmentCreateInput{
		ExternalFulfillmentID: req.ExternalFulfillmentID,
		Status:                req.Status,
		Carrier:               req.Carrier,
		ServiceLevel:          req.ServiceLevel,
		ShippedAt:             req.ShippedAt,
		DeliveredAt:           req.DeliveredAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFulfillmentJSON(f))
}

func (a *API) getFulfillment(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	f, err := a.fulfillments.GetFulfillment(r.Context(), orgID, chi.URLParam(r, "fulfillmentId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFulfillmentJSON(f))
}

type updateFulfillmentRequest struct {
	ExternalFulfillmentID string     `json:"externalFulfillmentId"`
	Status                string     `json:"status"`
	Carrier               *string    `json:"carrier"`
	ServiceLevel          *string    `json:"serviceLevel"`
	ShippedAt             *time.Time `json:"shippedAt"`
	DeliveredAt           *time.Time `json:"deliveredAt"`
}

// updateFulfillment — полная замена (PUT); непереданные опциональные поля
// очищаются.
func (a *API) updateFulfillment(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req updateFulfillmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := a.fulfillments.UpdateFulfillment(r.Context(), orgID, chi.URLParam(r, "fulfillmentId"), fulfillments.FulfillmentUpdateInput{
		ExternalFulfillmentID: req.ExternalFulfillmentID,
		Status:                req.Status,
		Carrier:               req.Carrier,
		ServiceLevel:          req.ServiceLevel,
		ShippedAt:             req.ShippedAt,
		DeliveredAt:           req.DeliveredAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFulfillmentJSON(f))
}

type patchFulfillmentRequest struct {
	ExternalFulfillmentID *string    `json:"externalFulfillmentId"`
	Status                *string    `json:"status"`
	Carrier               *string    `json:"carrier"`
	ServiceLevel          *string    `json:"serviceLevel"`
	ShippedAt             *time.Time `json:"shippedAt"`
	DeliveredAt           *time.Time `json:"deliveredAt"`
}

func (a *API) patchFulfillment(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req patchFulfillmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	f, err := a.fulfillments.PatchFulfillment(r.Context(), orgID, chi.URLParam(r, "fulfillmentId"), fulfillments.FulfillmentPatch{
		ExternalFulfillmentID: req.ExternalFulfillmentID,
		Status:                req.Status,
		Carrier:               req.Carrier,
		ServiceLevel:          req.ServiceLevel,
		ShippedAt:             req.ShippedAt,
		DeliveredAt:           req.DeliveredAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFulfillmentJSON(f))
}

func (a *API) deleteFulfillment(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	if err := a.fulfillments.DeleteFulfillment(r.Context(), orgID, chi.URLParam(r, "fulfillmentId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listFulfillments(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	q := r.URL.Query()
	f := pglogistics.FulfillmentFilter{
		Status:                q.Get("status"),
		Carrier:               q.Get("carrier"),
		ExternalFulfillmentID: q.Get("externalFulfillmentId"),
		From:                  timeParam(r, "from"),
		To:                    timeParam(r, "to"),
	}
	fs, err := a.fulfillments.ListFulfillments(r.Context(), orgID, chi.URLParam(r, "orderId"), f, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]fulfillmentJSON, 0, len(fs))
	for _, item := range fs {
		out = append(out, toFulfillmentJSON(item))
	}
	writeJSON(w, http.StatusOK, out)
}
