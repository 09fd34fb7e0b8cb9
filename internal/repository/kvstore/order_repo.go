package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/infra/kv"
	"softcrate-backend/internal/repository"
)

const (
	orderPrefix           = "order_"
	checkoutPayloadPrefix = "temp_checkout_"
)

type orderRepo struct {
	store  kv.Store
	logger zerolog.Logger
}

func NewOrderRepository(store kv.Store, logger zerolog.Logger) repository.OrderRepository {
	return &orderRepo{
		store:  store,
		logger: logger.With().Str("component", "OrderRepository").Logger(),
	}
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = domain.NewOrderID()
	}
	b, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", order.ID, err)
	}
	if err := r.store.Put(ctx, order.ID, b); err != nil {
		return fmt.Errorf("save order %s: %w", order.ID, err)
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	b, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if b == nil {
		return nil, nil
	}
	var o domain.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", id, err)
	}
	o.ID = id
	return &o, nil
}

// scan loads every order record under the order_ prefix. A record that fails
// to parse is logged and skipped so one corrupt entry cannot take down a
// whole listing.
func (r *orderRepo) scan(ctx context.Context) ([]domain.Order, error) {
	ids, err := r.store.List(ctx, orderPrefix, 0)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		b, err := r.store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get order %s: %w", id, err)
		}
		if b == nil {
			continue // expired or deleted between list and get
		}
		var o domain.Order
		if err := json.Unmarshal(b, &o); err != nil {
			r.logger.Warn().Str("order_id", id).Err(err).Msg("skipping malformed order record")
			continue
		}
		o.ID = id
		out = append(out, o)
	}
	return out, nil
}

func (r *orderRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
	return orders, nil
}

func (r *orderRepo) FindWaitingForStock(ctx context.Context, productSlug string) ([]domain.Order, error) {
	orders, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	var waiting []domain.Order
	for _, o := range orders {
		if o.Status == domain.StatusWaitingForStock && o.ProductSlug == productSlug {
			waiting = append(waiting, o)
		}
	}
	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].Timestamp.Before(waiting[j].Timestamp)
	})
	return waiting, nil
}

func (r *orderRepo) FindByTxnID(ctx context.Context, txnID string) (*domain.Order, error) {
	if txnID == "" {
		return nil, nil
	}
	orders, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].PayPalTxnID == txnID {
			return &orders[i], nil
		}
	}
	return nil, nil
}

func (r *orderRepo) SaveCheckoutPayload(ctx context.Context, token string, payload []byte, ttl time.Duration) error {
	return r.store.PutTTL(ctx, checkoutPayloadPrefix+token, payload, ttl)
}

func (r *orderRepo) GetCheckoutPayload(ctx context.Context, token string) ([]byte, error) {
	return r.store.Get(ctx, checkoutPayloadPrefix+token)
}
