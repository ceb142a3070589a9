package models

import (
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound возвращается хранилищем, когда сущность отсутствует в рамках организации.
var ErrNotFound = errors.New("not found")

// ErrInvalid помечает ошибки валидации входных данных (HTTP 400).
var ErrInvalid = errors.New("invalid argument")

// Нормализованные статусы трекинга (можно расширять).
const (
	TrackingStatusLabelCreated   = "LABEL_CREATED"
	TrackingStatusInTransit      = "IN_TRANSIT"
	TrackingStatusOutForDelivery = "OUT_FOR_DELIVERY"
	TrackingStatusDelivered      = "DELIVERED"
	TrackingStatusException      = "EXCEPTION"
	TrackingStatusUnknown        = "UNKNOWN"
)

// Статусы отдельного fulfillment (выставляются снаружи, через API).
const (
	FulfillmentStatusCreated   = "CREATED"
	FulfillmentStatusShipped   = "SHIPPED"
	FulfillmentStatusDelivered = "DELIVERED"
	FulfillmentStatusCancelled = "CANCELLED"
	FulfillmentStatusFailed    = "FAILED"
	FulfillmentStatusUnknown   = "UNKNOWN"
)

// Агрегированный статус заказа (выводится из статусов его fulfillment'ов).
const (
	OverallStatusUnfulfilled = "UNFULFILLED"
	OverallStatusPartial     = "PARTIAL"
	OverallStatusFulfilled   = "FULFILLED"
	OverallStatusCancelled   = "CANCELLED"
	OverallStatusUnknown     = "UNKNOWN"
)

const (
	OrderStatusCreated   = "CREATED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusClosed    = "CLOSED"
)

const (
	FinancialStatusUnknown           = "UNKNOWN"
	FinancialStatusPending           = "PENDING"
	FinancialStatusPaid              = "PAID"
	FinancialStatusPartiallyPaid     = "PARTIALLY_PAID"
	FinancialStatusRefunded          = "REFUNDED"
	FinancialStatusPartiallyRefunded = "PARTIALLY_REFUNDED"
	FinancialStatusVoided            = "VOIDED"
)

const (
	EventSourceCarrier = "CARRIER"
	EventSourceShopify = "SHOPIFY"
	EventSourceFenix   = "FENIX"
	EventSourceOther   = "OTHER"
)

const (
	OrgStatusActive   = "ACTIVE"
	OrgStatusInactive = "INACTIVE"
)

const (
	PlatformShopify  = "SHOPIFY"
	PlatformNetSuite = "NETSUITE"
	PlatformCustom   = "CUSTOM"
	PlatformMagento  = "MAGENTO"
	PlatformOther    = "OTHER"
)

type Organization struct {
	ID         string
	ExternalID *string
	Name       string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Website struct {
	ID        string
	OrgID     string
	Code      string
	Name      string
	Platform  string
	Domain    *string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID                  string
	OrgID               string
	WebsiteID           string
	ExternalOrderID     string
	ExternalOrderNumber *string
	Status              string
	FinancialStatus     string
	FulfillmentStatus   string
	CustomerEmail       *string
	OrderTotal          string
	Currency            *string
	OrderCreatedAt      *time.Time
	OrderUpdatedAt      *time.Time
	IngestedAt          time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Items               []*OrderItem
}

type OrderItem struct {
	ID                 string
	OrderID            string
	ExternalLineItemID *string
	SKU                *string
	Name               *string
	Quantity           *int32
	Price              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Fulfillment struct {
	ID                    string
	OrgID                 string
	OrderID               string
	ExternalFulfillmentID string
	Status                string
	Carrier               *string
	ServiceLevel          *string
	ShippedAt             *time.Time
	DeliveredAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Tracking struct {
	ID             string
	OrgID          string
	FulfillmentID  string
	TrackingNumber string
	Carrier        *string
	TrackingURL    *string
	Status         string
	IsPrimary      bool
	LastEventAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TrackingEvent неизменяем после записи. EventHash — детерминированный
// отпечаток (org, tracking, event_time, event_code), по нему схлопываются
// повторные доставки одного и того же события.
type TrackingEvent struct {
	ID               string
	OrgID            string
	TrackingID       string
	EventTime        time.Time
	EventCode        string
	EventDescription *string
	EventCity        *string
	EventState       *string
	EventCountry     *string
	EventZip         *string
	Source           string
	EventHash        string
	CreatedAt        time.Time
}
