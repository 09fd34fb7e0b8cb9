package paypal

import (
	"context"
	"net/url"
)

type ClientInterface interface {
	CreateOrder(ctx context.Context, p CreateOrderParams) (*CheckoutOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error)
	VerifyIPN(ctx context.Context, form url.Values) (bool, error)
}

var _ ClientInterface = (*Client)(nil)
