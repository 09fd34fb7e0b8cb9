package sellhub

import (
	"context"
	"encoding/json"
)

type ClientInterface interface {
	CreateCheckout(ctx context.Context, p CheckoutParams) (*Checkout, error)
	Variants(ctx context.Context, rawQuery string) (json.RawMessage, error)
}

var _ ClientInterface = (*Client)(nil)
