package domain

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusPendingAmazon   OrderStatus = "pending_amazon"
	StatusWaitingForStock OrderStatus = "waiting_for_stock"
	StatusCompleted       OrderStatus = "completed"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRefunded        OrderStatus = "refunded"
)

// validNext lists every allowed status transition. completed can still be
// forced to cancelled/refunded as a business override; terminal statuses have
// no way back.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:         {StatusWaitingForStock: true, StatusCompleted: true, StatusCancelled: true, StatusRefunded: true},
	StatusPendingAmazon:   {StatusWaitingForStock: true, StatusCompleted: true, StatusCancelled: true, StatusRefunded: true},
	StatusWaitingForStock: {StatusCompleted: true, StatusCancelled: true, StatusRefunded: true},
	StatusCompleted:       {StatusCancelled: true, StatusRefunded: true},
	StatusCancelled:       {},
	StatusRefunded:        {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

func ValidStatus(s OrderStatus) bool {
	_, ok := validNext[s]
	return ok
}

type OrderItem struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Order struct {
	ID           string      `json:"-"`
	OrderNumber  string      `json:"order_number,omitempty"`
	Email        string      `json:"email"`
	CustomerName string      `json:"customer_name,omitempty"`
	Product      string      `json:"product"`
	ProductSlug  string      `json:"product_slug,omitempty"`
	Items        []OrderItem `json:"items,omitempty"`
	Amount       string      `json:"amount"`
	Currency     string      `json:"currency"`
	Timestamp    time.Time   `json:"timestamp"`
	Status       OrderStatus `json:"status"`

	PaymentMethod string `json:"payment_method,omitempty"`

	// LicenseKey stays null until fulfillment and is set exactly once.
	LicenseKey      *string    `json:"license_key"`
	FulfillmentDate *time.Time `json:"fulfillment_date,omitempty"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`

	PayPalTxnID string `json:"paypal_txn_id,omitempty"`
	PayerEmail  string `json:"payer_email,omitempty"`

	VoucherCode string `json:"voucher_code,omitempty"`
	VoucherType string `json:"voucher_type,omitempty"`

	// Set when an admin fulfills the order with a key from a different
	// product than the one originally purchased.
	ManualFulfillmentProduct string `json:"manual_fulfillment_product,omitempty"`
}

func (o *Order) Fulfilled() bool {
	return o.Status == StatusCompleted && o.LicenseKey != nil
}

// NewOrderID generates the storage id for an order. The "order_" prefix is
// also the listing prefix in the key-value store.
func NewOrderID() string {
	return "order_" + uuid.NewString()
}

// NewOrderNumber builds the human-readable business identifier
// ORD-<TYPE>-<YYYYMMDD>-<4 digits>. The suffix is random, not sequential, so
// the number is unique in practice but not guaranteed.
func NewOrderNumber(typ string, now time.Time) string {
	prefix := strings.ToUpper(typ)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("ORD-%s-%s-%04d", prefix, now.UTC().Format("20060102"), 1000+rand.Intn(9000))
}

// CartTotal sums price*quantity over the items, formatted with two decimals.
func CartTotal(items []OrderItem) string {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return fmt.Sprintf("%.2f", total)
}

// CartProductName renders the display name for a multi-item cart the way the
// storefront does: first item plus a counter.
func CartProductName(items []OrderItem) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) > 1 {
		return fmt.Sprintf("%s (+%d weitere)", items[0].Name, len(items)-1)
	}
	return items[0].Name
}

// CartProductSlug resolves the inventory join key for a cart: the first
// item's slug, falling back to a slugified name.
func CartProductSlug(items []OrderItem) string {
	if len(items) == 0 {
		return ""
	}
	if items[0].Slug != "" {
		return items[0].Slug
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(items[0].Name)), " ", "-")
}
