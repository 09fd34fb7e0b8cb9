package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/infra/mailer"
	"softcrate-backend/internal/infra/rabbitmq"
	"softcrate-backend/internal/repository"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOutOfStock        = errors.New("no keys in stock for this product")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// orderEvent is the payload published on the order lifecycle routing keys.
type orderEvent struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number,omitempty"`
	ProductSlug string             `json:"product_slug,omitempty"`
	Status      domain.OrderStatus `json:"status"`
}

// FulfillmentService owns every mutation of the license inventory and of
// order fulfillment state: the backorder reconciler, key consumption at
// capture time, manual admin fulfillment, and admin status transitions.
// Mailer and publisher are optional; when nil the side effect is skipped,
// and when present their failures are logged, never propagated.
type FulfillmentService struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	catalog   repository.CatalogRepository
	mailer    mailer.Mailer
	publisher rabbitmq.PublisherInterface
	locks     *ProductLocks
	logger    zerolog.Logger
}

func NewFulfillmentService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	catalog repository.CatalogRepository,
	m mailer.Mailer,
	publisher rabbitmq.PublisherInterface,
	locks *ProductLocks,
	logger zerolog.Logger,
) *FulfillmentService {
	return &FulfillmentService{
		orders:    orders,
		inventory: inventory,
		catalog:   catalog,
		mailer:    m,
		publisher: publisher,
		locks:     locks,
		logger:    logger.With().Str("component", "FulfillmentService").Logger(),
	}
}

// FulfillBackorders services existing demand before increasing supply: the
// oldest waiting_for_stock orders for the product are completed with keys
// from the batch, in timestamp order, and whatever remains of the batch is
// appended to inventory in a single write. Returns how many orders were
// fulfilled and how many keys were stocked.
//
// Each order update is committed individually; a storage failure mid-batch
// aborts the call and leaves the earlier updates in place. Duplicate keys in
// the batch are assigned to distinct orders, and a resubmitted batch is
// processed again in full; there is no idempotency key.
func (s *FulfillmentService) FulfillBackorders(ctx context.Context, productSlug string, newKeys []string) (fulfilled, restocked int, err error) {
	if err := s.locks.Acquire(ctx, productSlug); err != nil {
		return 0, 0, err
	}
	defer s.locks.Release(productSlug)

	if len(newKeys) == 0 {
		return 0, 0, nil
	}

	waiting, err := s.orders.FindWaitingForStock(ctx, productSlug)
	if err != nil {
		return 0, 0, err
	}

	remaining := append([]string(nil), newKeys...)
	var done []domain.Order
	for len(remaining) > 0 && len(done) < len(waiting) {
		key := remaining[0]
		remaining = remaining[1:]

		order := waiting[len(done)]
		now := time.Now().UTC()
		order.LicenseKey = &key
		order.Status = domain.StatusCompleted
		order.FulfillmentDate = &now
		if err := s.orders.Save(ctx, &order); err != nil {
			return len(done), 0, fmt.Errorf("fulfill order %s: %w", order.ID, err)
		}
		done = append(done, order)
	}

	if len(remaining) > 0 {
		stock, err := s.inventory.GetKeys(ctx, productSlug)
		if err != nil {
			return len(done), 0, err
		}
		if err := s.inventory.PutKeys(ctx, productSlug, append(stock, remaining...)); err != nil {
			return len(done), 0, err
		}
	}

	for i := range done {
		s.sendDeliveryMail(ctx, &done[i], productSlug)
		s.publish(ctx, rabbitmq.RouteOrderFulfilled, &done[i])
	}

	s.logger.Info().
		Str("product_slug", productSlug).
		Int("fulfilled", len(done)).
		Int("restocked", len(remaining)).
		Msg("backorder reconciliation finished")

	return len(done), len(remaining), nil
}

// TryImmediateAssign pops the first unused key for the product, persisting
// the shortened list. ok is false when the product is out of stock, in which
// case nothing was mutated.
func (s *FulfillmentService) TryImmediateAssign(ctx context.Context, productSlug string) (key string, ok bool, err error) {
	if err := s.locks.Acquire(ctx, productSlug); err != nil {
		return "", false, err
	}
	defer s.locks.Release(productSlug)

	stock, err := s.inventory.GetKeys(ctx, productSlug)
	if err != nil {
		return "", false, err
	}
	if len(stock) == 0 {
		return "", false, nil
	}

	key = stock[0]
	if err := s.inventory.PutKeys(ctx, productSlug, stock[1:]); err != nil {
		return "", false, err
	}
	return key, true, nil
}

// ManualFulfill completes one order with a key taken from the named product,
// which may differ from the product originally purchased (the order records
// that). Fails with ErrOutOfStock when the named product has no keys.
func (s *FulfillmentService) ManualFulfill(ctx context.Context, orderID, productSlug string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	key, ok, err := s.TryImmediateAssign(ctx, productSlug)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOutOfStock
	}

	now := time.Now().UTC()
	order.LicenseKey = &key
	order.Status = domain.StatusCompleted
	order.FulfillmentDate = &now
	order.ManualFulfillmentProduct = productSlug
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.sendDeliveryMail(ctx, order, productSlug)
	s.publish(ctx, rabbitmq.RouteOrderFulfilled, order)
	return order, nil
}

// UpdateOrderStatus applies an admin-driven transition, rejecting anything
// the state machine does not list, and sends the matching status email.
// emailSent reports whether a notification went out.
func (s *FulfillmentService) UpdateOrderStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (*domain.Order, bool, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, false, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	if order == nil {
		return nil, false, ErrOrderNotFound
	}
	if !domain.CanTransition(order.Status, newStatus) {
		return nil, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	now := time.Now().UTC()
	order.Status = newStatus
	order.StatusUpdatedAt = &now
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, false, err
	}

	emailSent := false
	if s.mailer != nil && order.Email != "" {
		var kind mailer.Kind
		switch newStatus {
		case domain.StatusRefunded:
			kind = mailer.KindRefund
		case domain.StatusCancelled:
			kind = mailer.KindCancellation
		case domain.StatusCompleted:
			if order.LicenseKey != nil {
				kind = mailer.KindDelivery
			}
		}
		if kind != "" {
			emailSent = s.sendStatusMail(ctx, order, kind)
		}
	}

	s.publish(ctx, rabbitmq.RouteOrderStatusChanged, order)
	return order, emailSent, nil
}

func (s *FulfillmentService) sendDeliveryMail(ctx context.Context, order *domain.Order, linkSlug string) {
	if s.mailer == nil || order.Email == "" || order.LicenseKey == nil {
		return
	}
	data := mailer.TemplateData{
		Order:        order,
		LicenseKey:   *order.LicenseKey,
		DownloadLink: s.downloadLinkFor(ctx, linkSlug),
	}
	if err := s.mailer.Send(ctx, order.Email, mailer.KindDelivery, data); err != nil {
		s.logger.Error().Str("order_id", order.ID).Err(err).Msg("delivery email failed")
	}
}

func (s *FulfillmentService) sendStatusMail(ctx context.Context, order *domain.Order, kind mailer.Kind) bool {
	data := mailer.TemplateData{Order: order}
	if order.LicenseKey != nil {
		data.LicenseKey = *order.LicenseKey
		data.DownloadLink = s.downloadLinkFor(ctx, order.ProductSlug)
	}
	if err := s.mailer.Send(ctx, order.Email, kind, data); err != nil {
		s.logger.Error().Str("order_id", order.ID).Str("kind", string(kind)).Err(err).Msg("status email failed")
		return false
	}
	return true
}

func (s *FulfillmentService) downloadLinkFor(ctx context.Context, productSlug string) string {
	links, err := s.catalog.GetDownloadLinks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("download links unavailable")
		return ""
	}
	return links[productSlug]
}

func (s *FulfillmentService) publish(ctx context.Context, routingKey string, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	ev := orderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		ProductSlug: order.ProductSlug,
		Status:      order.Status,
	}
	if err := s.publisher.Publish(ctx, routingKey, ev); err != nil {
		s.logger.Error().Str("routing_key", routingKey).Err(err).Msg("event publish failed")
	}
}
