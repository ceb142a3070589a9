package messages

import "time"

// TrackingEventReceived — событие перевозчика из входного топика.
// Доставка at-least-once: дедупликация по (org, tracking, event_time,
// event_code) делает повторную обработку безопасной.
type TrackingEventReceived struct {
	OrgID      string    `json:"org_id"`
	TrackingID string    `json:"tracking_id"`
	EventTime  time.Time `json:"event_time"`
	EventCode  string    `json:"event_code"`

	EventDescription *string `json:"event_description,omitempty"`
	EventCity        *string `json:"event_city,omitempty"`
	EventState       *string `json:"event_state,omitempty"`
	EventCountry     *string `json:"event_country,omitempty"`
	EventZip         *string `json:"event_zip,omitempty"`
	Source           string  `json:"source,omitempty"`
}

// OrderFulfillmentUpdated публикуется после смены агрегированного статуса заказа.
type OrderFulfillmentUpdated struct {
	OrgID          string `json:"org_id"`
	OrderID        string `json:"order_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
}
