package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a step in the forward-only order lifecycle.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
)

// Statuses lists the lifecycle in order. A status may only move to itself or later.
var Statuses = []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered}

// ParseStatus reports whether value names a known status.
func ParseStatus(value string) (OrderStatus, bool) {
	status := OrderStatus(value)
	return status, status.Ordinal() >= 0
}

// Ordinal is the position of s in Statuses, or -1 for an unknown status.
func (s OrderStatus) Ordinal() int {
	for i, status := range Statuses {
		if status == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s.Ordinal() >= 0
}

// CanAdvanceTo reports whether an order in s may move to next. Staying put is allowed.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.Ordinal() >= s.Ordinal()
}

// NewOrderID builds "ORD-" plus the last nine digits of now in milliseconds. Two orders
// created in the same millisecond collide; the primary key rejects the second.
func NewOrderID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 9 {
		ms = ms[len(ms)-9:]
	}
	return "ORD-" + ms
}

type Order struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryNotes   *string         `json:"delivery_notes"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentProofURL *string         `json:"payment_proof_url"`
	Status          OrderStatus     `json:"status"`
	CourierCompany  *string         `json:"courier_company"`
	CourierTracking *string         `json:"courier_tracking"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItem     `json:"items"`
}

// OrderItem is a line of an order. ProductName is copied from the catalog when the order
// is placed and does not follow later renames or deletion.
type OrderItem struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Size        *string         `json:"size"`
	Color       *string         `json:"color"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Stats counts orders per status. Total includes every order.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Shipped    int `json:"shipped"`
	Delivered  int `json:"delivered"`
}

// Add counts n orders in status and reports whether the status was known. Unknown
// statuses only add to Total.
func (s *Stats) Add(status string, n int) bool {
	s.Total += n
	switch OrderStatus(status) {
	case StatusPending:
		s.Pending += n
	case StatusProcessing:
		s.Processing += n
	case StatusShipped:
		s.Shipped += n
	case StatusDelivered:
		s.Delivered += n
	default:
		return false
	}
	return true
}
