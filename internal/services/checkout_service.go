package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/infra/mailer"
	"softcrate-backend/internal/infra/paypal"
	"softcrate-backend/internal/infra/rabbitmq"
	"softcrate-backend/internal/repository"
)

var (
	ErrIPNNotVerified  = errors.New("ipn verification failed")
	ErrIPNNoCustomID   = errors.New("no custom_id in ipn")
	ErrCheckoutExpired = errors.New("checkout payload not found")
	ErrAmountMismatch  = errors.New("paid amount does not match cart total")
)

// PayPal's custom_id field is capped at 127 characters; carts longer than
// this are parked in the store under a token instead.
const (
	customIDLimit      = 120
	checkoutPayloadTTL = 3 * time.Hour
	kvIndirection      = "kv:"
)

type CheckoutConfig struct {
	BrandName          string
	Currency           string
	SuccessURL         string
	CancelURL          string
	DefaultProductSlug string
	AdminEmail         string
}

// checkoutPayload is the cart snapshot carried through PayPal's custom_id,
// either inline or via the kv: indirection.
type checkoutPayload struct {
	Email string             `json:"email"`
	Items []domain.OrderItem `json:"items"`
}

type CheckoutService struct {
	orders      repository.OrderRepository
	catalog     repository.CatalogRepository
	fulfillment *FulfillmentService
	paypal      paypal.ClientInterface
	mailer      mailer.Mailer
	publisher   rabbitmq.PublisherInterface
	cfg         CheckoutConfig
	logger      zerolog.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	fulfillment *FulfillmentService,
	pp paypal.ClientInterface,
	m mailer.Mailer,
	publisher rabbitmq.PublisherInterface,
	cfg CheckoutConfig,
	logger zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:      orders,
		catalog:     catalog,
		fulfillment: fulfillment,
		paypal:      pp,
		mailer:      m,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger.With().Str("component", "CheckoutService").Logger(),
	}
}

// CreatePayPalOrder opens a PayPal CAPTURE order for the cart and returns
// the approval redirect. The cart rides along in custom_id so the capture
// and IPN paths can reconstruct it without any session state.
func (s *CheckoutService) CreatePayPalOrder(ctx context.Context, email string, items []domain.OrderItem) (*paypal.CheckoutOrder, error) {
	customID, err := s.encodeCart(ctx, email, items)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	description := strings.Join(names, ", ")
	if len(description) > 127 {
		description = description[:127]
	}

	return s.paypal.CreateOrder(ctx, paypal.CreateOrderParams{
		Total:       domain.CartTotal(items),
		Currency:    s.cfg.Currency,
		Description: description,
		CustomID:    customID,
		BrandName:   s.cfg.BrandName,
		ReturnURL:   s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
	})
}

type CaptureOutcome struct {
	Status  domain.OrderStatus
	OrderID string
	Message string
}

// CapturePayPalOrder captures an approved PayPal order. On COMPLETED it
// records the purchase, assigning a license key immediately when stock
// exists and queueing the order as waiting_for_stock otherwise. Captures in
// any other state create no order.
func (s *CheckoutService) CapturePayPalOrder(ctx context.Context, paypalOrderID, email string) (*CaptureOutcome, error) {
	capture, err := s.paypal.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		return nil, err
	}
	if capture.Status != "COMPLETED" {
		return &CaptureOutcome{Status: domain.StatusPending, Message: "Payment not completed yet"}, nil
	}

	cart := s.resolveCart(ctx, capture.CustomID)
	if email == "" {
		email = cart.Email
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:            domain.NewOrderID(),
		OrderNumber:   domain.NewOrderNumber("PP", now),
		Email:         email,
		CustomerName:  capture.PayerName,
		Product:       domain.CartProductName(cart.Items),
		ProductSlug:   domain.CartProductSlug(cart.Items),
		Items:         cart.Items,
		Amount:        capture.Amount,
		Currency:      capture.Currency,
		Timestamp:     now,
		PaymentMethod: "paypal",
		PayPalTxnID:   capture.TxnID,
		PayerEmail:    capture.PayerEmail,
	}
	if order.Product == "" {
		order.Product = "Digital Product"
	}
	if order.ProductSlug == "" {
		order.ProductSlug = s.cfg.DefaultProductSlug
	}
	if order.Currency == "" {
		order.Currency = s.cfg.Currency
	}

	if err := s.recordPaidOrder(ctx, order); err != nil {
		return nil, err
	}

	message := "Ordered placed, waiting for stock"
	if order.Status == domain.StatusCompleted {
		message = "Payment completed and key sent"
	}
	return &CaptureOutcome{Status: order.Status, OrderID: order.ID, Message: message}, nil
}

// ProcessIPN handles an asynchronous PayPal notification: verify it, ignore
// anything but completed payments, refuse amount mismatches, skip already
// processed transactions, then record the order like a capture would.
func (s *CheckoutService) ProcessIPN(ctx context.Context, form url.Values) error {
	verified, err := s.paypal.VerifyIPN(ctx, form)
	if err != nil {
		return fmt.Errorf("verify ipn: %w", err)
	}
	if !verified {
		return ErrIPNNotVerified
	}

	if status := form.Get("payment_status"); status != "Completed" {
		s.logger.Info().Str("payment_status", status).Msg("ignoring non-completed ipn")
		return nil
	}

	custom := form.Get("custom")
	if custom == "" {
		return ErrIPNNoCustomID
	}
	txnID := form.Get("txn_id")

	existing, err := s.orders.FindByTxnID(ctx, txnID)
	if err != nil {
		return err
	}
	if existing != nil {
		s.logger.Info().Str("txn_id", txnID).Str("order_id", existing.ID).Msg("ipn already processed")
		return nil
	}

	var cart checkoutPayload
	if strings.HasPrefix(custom, kvIndirection) {
		payload, err := s.orders.GetCheckoutPayload(ctx, strings.TrimPrefix(custom, kvIndirection))
		if err != nil {
			return err
		}
		if payload == nil {
			return ErrCheckoutExpired
		}
		if err := json.Unmarshal(payload, &cart); err != nil {
			return fmt.Errorf("decode parked checkout payload: %w", err)
		}
	} else if err := json.Unmarshal([]byte(custom), &cart); err != nil {
		return fmt.Errorf("decode custom_id: %w", err)
	}

	gross, err := strconv.ParseFloat(form.Get("mc_gross"), 64)
	if err != nil {
		return fmt.Errorf("parse mc_gross: %w", err)
	}
	expected, _ := strconv.ParseFloat(domain.CartTotal(cart.Items), 64)
	if math.Abs(gross-expected) > 0.01 {
		return fmt.Errorf("%w: expected %.2f, got %.2f", ErrAmountMismatch, expected, gross)
	}

	customerName := "PayPal Kunde"
	if first := form.Get("first_name"); first != "" {
		customerName = strings.TrimSpace(first + " " + form.Get("last_name"))
	}
	currency := form.Get("mc_currency")
	if currency == "" {
		currency = s.cfg.Currency
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:            domain.NewOrderID(),
		OrderNumber:   domain.NewOrderNumber("PP", now),
		Email:         cart.Email,
		CustomerName:  customerName,
		Product:       domain.CartProductName(cart.Items),
		ProductSlug:   domain.CartProductSlug(cart.Items),
		Items:         cart.Items,
		Amount:        fmt.Sprintf("%.2f", gross),
		Currency:      currency,
		Timestamp:     now,
		PaymentMethod: "paypal",
		PayPalTxnID:   txnID,
		PayerEmail:    form.Get("payer_email"),
	}
	return s.recordPaidOrder(ctx, order)
}

// VoucherCheckout records a manual-review order for a voucher payment and
// mails the code to the admin inbox. No key is assigned until an admin acts.
func (s *CheckoutService) VoucherCheckout(ctx context.Context, email, code, voucherType string, items []domain.OrderItem) (*domain.Order, error) {
	label := domain.VoucherLabel(voucherType)
	numberType := voucherType
	if voucherType == "amazon" {
		numberType = "AMZ"
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:            domain.NewOrderID(),
		OrderNumber:   domain.NewOrderNumber(numberType, now),
		Email:         email,
		CustomerName:  label + " Kunde",
		Product:       domain.CartProductName(items),
		ProductSlug:   domain.CartProductSlug(items),
		Items:         items,
		Amount:        domain.CartTotal(items),
		Currency:      s.cfg.Currency,
		Timestamp:     now,
		Status:        domain.StatusPendingAmazon,
		PaymentMethod: voucherType,
		VoucherCode:   code,
		VoucherType:   voucherType,
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	if s.mailer != nil && s.cfg.AdminEmail != "" {
		data := mailer.TemplateData{Order: order, VoucherLabel: label}
		if err := s.mailer.Send(ctx, s.cfg.AdminEmail, mailer.KindVoucherReview, data); err != nil {
			s.logger.Error().Str("order_id", order.ID).Err(err).Msg("voucher review email failed")
		}
	}

	s.publishCreated(ctx, order)
	return order, nil
}

// recordPaidOrder finishes a captured payment: try to hand out a key right
// away, persist the order in its resulting state, notify the customer, and
// emit order.created. Email and event failures are absorbed.
func (s *CheckoutService) recordPaidOrder(ctx context.Context, order *domain.Order) error {
	key, ok, err := s.fulfillment.TryImmediateAssign(ctx, order.ProductSlug)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if ok {
		order.LicenseKey = &key
		order.Status = domain.StatusCompleted
		order.FulfillmentDate = &now
	} else {
		order.Status = domain.StatusWaitingForStock
		s.logger.Info().Str("product_slug", order.ProductSlug).Msg("no keys available, order queued for stock")
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}

	if s.mailer != nil && order.Email != "" {
		kind := mailer.KindBackorder
		data := mailer.TemplateData{Order: order}
		if ok {
			kind = mailer.KindDelivery
			data.LicenseKey = key
			data.DownloadLink = s.downloadLinkFor(ctx, order.ProductSlug)
		}
		if err := s.mailer.Send(ctx, order.Email, kind, data); err != nil {
			s.logger.Error().Str("order_id", order.ID).Str("kind", string(kind)).Err(err).Msg("order email failed")
		}
	}

	s.publishCreated(ctx, order)
	return nil
}

// encodeCart marshals the cart for custom_id, spilling to a TTL-limited
// store record when the inline form would exceed PayPal's length cap.
func (s *CheckoutService) encodeCart(ctx context.Context, email string, items []domain.OrderItem) (string, error) {
	b, err := json.Marshal(checkoutPayload{Email: email, Items: items})
	if err != nil {
		return "", err
	}
	if len(b) <= customIDLimit {
		return string(b), nil
	}

	token := "checkout_" + uuid.NewString()
	if err := s.orders.SaveCheckoutPayload(ctx, token, b, checkoutPayloadTTL); err != nil {
		return "", fmt.Errorf("park checkout payload: %w", err)
	}
	return kvIndirection + token, nil
}

// resolveCart is the lenient counterpart of encodeCart used at capture time:
// an unreadable or expired payload degrades to an empty cart (the caller
// falls back to the configured default product) instead of failing the
// capture of an already-taken payment.
func (s *CheckoutService) resolveCart(ctx context.Context, customID string) checkoutPayload {
	var cart checkoutPayload
	if customID == "" {
		return cart
	}
	raw := []byte(customID)
	if strings.HasPrefix(customID, kvIndirection) {
		payload, err := s.orders.GetCheckoutPayload(ctx, strings.TrimPrefix(customID, kvIndirection))
		if err != nil || payload == nil {
			s.logger.Warn().Err(err).Msg("parked checkout payload unavailable at capture")
			return cart
		}
		raw = payload
	}
	if err := json.Unmarshal(raw, &cart); err != nil {
		s.logger.Warn().Err(err).Msg("unreadable custom_id at capture")
	}
	return cart
}

func (s *CheckoutService) downloadLinkFor(ctx context.Context, productSlug string) string {
	links, err := s.catalog.GetDownloadLinks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("download links unavailable")
		return ""
	}
	return links[productSlug]
}

func (s *CheckoutService) publishCreated(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	ev := orderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ProductSlug: order.ProductSlug,
		Status:      order.Status,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RouteOrderCreated, ev); err != nil {
		s.logger.Error().Str("order_id", order.ID).Err(err).Msg("event publish failed")
	}
}
