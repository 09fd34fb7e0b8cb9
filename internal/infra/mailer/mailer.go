package mailer

import (
	"context"

	"softcrate-backend/internal/domain"
)

type Kind string

const (
	// KindDelivery carries the license key (and download link when mapped).
	KindDelivery Kind = "delivery"
	// KindBackorder tells the customer they are queued for stock.
	KindBackorder    Kind = "backorder"
	KindRefund       Kind = "refund"
	KindCancellation Kind = "cancellation"
	// KindVoucherReview goes to the admin inbox, not the customer.
	KindVoucherReview Kind = "voucher_review"
)

type TemplateData struct {
	Order        *domain.Order
	LicenseKey   string
	DownloadLink string
	VoucherLabel string
}

// Mailer delivers one rendered message. Implementations are best-effort
// collaborators: callers log failures and carry on.
type Mailer interface {
	Send(ctx context.Context, to string, kind Kind, data TemplateData) error
}

var _ Mailer = (*ResendClient)(nil)
