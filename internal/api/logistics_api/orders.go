package logistics_api

import (
	"net/http"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/services/orders"
	"github.com/BearBump/ShipRollup/internal/storage/pglogistics"
	"github.com/go-chi/chi/v5"
)

type orderItemJSON struct {
	ID                 string  `json:"id"`
	ExternalLineItemID *string `json:"externalLineItemId,omitempty"`
	SKU                *string `json:"sku,omitempty"`
	Name               *string `json:"name,omitempty"`
	Quantity           *int32  `json:"quantity,omitempty"`
	Price              *string `json:"price,omitempty"`
}

type orderJSON struct {
	ID                  string          `json:"id"`
	OrgID               string          `json:"orgId"`
	WebsiteID           string          `json:"websiteId"`
	ExternalOrderID     string          `json:"externalOrderId"`
	ExternalOrderNumber *string         `json:"externalOrderNumber,omitempty"`
	Status              string          `json:"status"`
	FinancialStatus     string          `json:"financialStatus"`
	FulfillmentStatus   string          `json:"fulfillmentStatus"`
	CustomerEmail       *string         `json:"customerEmail,omitempty"`
	OrderTotal          string          `json:"orderTotal"`
	Currency            *string         `json:"currency,omitempty"`
	OrderCreatedAt      *time.Time      `json:"orderCreatedAt,omitempty"`
	OrderUpdatedAt      *time.Time      `json:"orderUpdatedAt,omitempty"`
	IngestedAt          time.Time       `json:"ingestedAt"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	Items               []orderItemJSON `json:"items,omitempty"`
}

func toOrderJSON(o *models.Order) orderJSON {
	out := orderJSON{
		ID:                  o.ID,
		OrgID:               o.OrgID,
		WebsiteID:           o.WebsiteID,
		ExternalOrderID:     o.ExternalOrderID,
		ExternalOrderNumber: o.ExternalOrderNumber,
		Status:              o.Status,
		FinancialStatus:     o.FinancialStatus,
		FulfillmentStatus:   o.FulfillmentStatus,
		CustomerEmail:       o.CustomerEmail,
		OrderTotal:          o.OrderTotal,
		Currency:            o.Currency,
		OrderCreatedAt:      o.OrderCreatedAt,
		OrderUpdatedAt:      o.OrderUpdatedAt,
		IngestedAt:          o.IngestedAt,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, orderItemJSON{
			ID:                 it.ID,
			ExternalLineItemID: it.ExternalLineItemID,
			SKU:                it.SKU,
			Name:               it.Name,
			Quantity:           it.Quantity,
			Price:              it.Price,
		})
	}
	return out
}

type orderItemRequest struct {
	ExternalLineItemID *string `json:"externalLineItemId"`
	SKU                *string `json:"sku"`
	Name               *string `json:"name"`
	Quantity           *int32  `json:"quantity"`
	Price              *string `json:"price"`
}

type createOrderRequest struct {
	WebsiteID           string             `json:"websiteId"`
	ExternalOrderID     string             `json:"externalOrderId"`
	ExternalOrderNumber *string            `json:"externalOrderNumber"`
	Status              string             `json:"status"`
	FinancialStatus     string             `json:"financialStatus"`
	CustomerEmail       *string            `json:"customerEmail"`
	OrderTotal          string             `json:"orderTotal"`
	Currency            *string            `json:"currency"`
	OrderCreatedAt      *time.Time         `json:"orderCreatedAt"`
	OrderUpdatedAt      *time.Time         `json:"orderUpdatedAt"`
	Items               []orderItemRequest `json:"items"`
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := orders.OrderCreateInput{
		WebsiteID:           req.WebsiteID,
		ExternalOrderID:     req.ExternalOrderID,
		ExternalOrderNumber: req.ExternalOrderNumber,
		Status:              req.Status,
		FinancialStatus:     req.FinancialStatus,
		CustomerEmail:       req.CustomerEmail,
		OrderTotal:          req.OrderTotal,
		Currency:            req.Currency,
		OrderCreatedAt:      req.OrderCreatedAt,
		OrderUpdatedAt:      req.OrderUpdatedAt,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, orders.OrderItemInput{
			ExternalLineItemID: it.ExternalLineItemID,
			SKU:                it.SKU,
			Name:               it.Name,
			Quantity:           it.Quantity,
			Price:              it.Price,
		})
	}

	o, err := a.orders.CreateOrder(r.Context(), orgID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderJSON(o))
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	o, err := a.orders.GetOrder(r.Context(), orgID, chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

type updateOrderRequest struct {
	ExternalOrderNumber *string    `json:"externalOrderNumber"`
	Status              string     `json:"status"`
	FinancialStatus     string     `json:"financialStatus"`
	CustomerEmail       *string    `json:"customerEmail"`
	OrderTotal          string     `json:"orderTotal"`
	Currency            *string    `json:"currency"`
	OrderCreatedAt      *time.Time `json:"orderCreatedAt"`
	OrderUpdatedAt      *time.Time `json:"orderUpdatedAt"`
}

// updateOrder — полная замена (PUT) в отличие от patchOrder: непереданные
// опциональные поля очищаются.
func (a *API) updateOrder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req updateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := a.orders.UpdateOrder(r.Context(), orgID, chi.URLParam(r, "orderId"), orders.OrderUpdateInput{
		ExternalOrderNumber: req.ExternalOrderNumber,
		Status:              req.Status,
		FinancialStatus:     req.FinancialStatus,
		CustomerEmail:       req.CustomerEmail,
		OrderTotal:          req.OrderTotal,
		Currency:            req.Currency,
		OrderCreatedAt:      req.OrderCreatedAt,
		OrderUpdatedAt:      req.OrderUpdatedAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

type patchOrderRequest struct {
	ExternalOrderNumber *string    `json:"externalOrderNumber"`
	Status              *string    `json:"status"`
	FinancialStatus     *string    `json:"financialStatus"`
	CustomerEmail       *string    `json:"customerEmail"`
	OrderTotal          *string    `json:"orderTotal"`
	Currency            *string    `json:"currency"`
	OrderCreatedAt      *time.Time `json:"orderCreatedAt"`
	OrderUpdatedAt      *time.Time `json:"orderUpdatedAt"`
}

func (a *API) patchOrder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	var req patchOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := a.orders.PatchOrder(r.Context(), orgID, chi.URLParam(r, "orderId"), orders.OrderPatch{
		ExternalOrderNumber: req.ExternalOrderNumber,
		Status:              req.Status,
		FinancialStatus:     req.FinancialStatus,
		CustomerEmail:       req.CustomerEmail,
		OrderTotal:          req.OrderTotal,
		Currency:            req.Currency,
		OrderCreatedAt:      req.OrderCreatedAt,
		OrderUpdatedAt:      req.OrderUpdatedAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderJSON(o))
}

func (a *API) deleteOrder(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	if err := a.orders.DeleteOrder(r.Context(), orgID, chi.URLParam(r, "orderId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	orgID, ok := requireOrg(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	q := r.URL.Query()
	f := pglogistics.OrderFilter{
		WebsiteID:           q.Get("websiteId"),
		Status:              q.Get("status"),
		FinancialStatus:     q.Get("financialStatus"),
		FulfillmentStatus:   q.Get("fulfillmentStatus"),
		ExternalOrderID:     q.Get("externalOrderId"),
		ExternalOrderNumber: q.Get("externalOrderNumber"),
		From:                timeParam(r, "from"),
		To:                  timeParam(r, "to"),
	}
	os, err := a.orders.ListOrders(r.Context(), orgID, f, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]orderJSON, 0, len(os))
	for _, o := range os {
		out = append(out, toOrderJSON(o))
	}
	writeJSON(w, http.StatusOK, out)
}
