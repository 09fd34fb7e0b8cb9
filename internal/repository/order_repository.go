package repository

import (
	"context"
	"time"

	"softcrate-backend/internal/domain"
)

type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	// FindByID returns (nil, nil) when no order exists under id.
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// FindAll returns every order, newest first. Records that fail to parse
	// are skipped, not fatal.
	FindAll(ctx context.Context) ([]domain.Order, error)
	// FindWaitingForStock returns the waiting_for_stock orders for a product,
	// oldest first. Equal timestamps keep the (unspecified) listing order.
	FindWaitingForStock(ctx context.Context, productSlug string) ([]domain.Order, error)
	// FindByTxnID returns (nil, nil) when no order carries the PayPal
	// transaction id.
	FindByTxnID(ctx context.Context, txnID string) (*domain.Order, error)

	// Checkout payloads are short-lived carts parked while the customer is at
	// PayPal; they expire on their own.
	SaveCheckoutPayload(ctx context.Context, token string, payload []byte, ttl time.Duration) error
	GetCheckoutPayload(ctx context.Context, token string) ([]byte, error)
}
