package kvstore

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"softcrate-backend/internal/domain"
)

// fakeStore is an in-memory stand-in for the key-value store. TTLs are
// recorded but never enforced.
type fakeStore struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (s *fakeStore) Put(ctx context.Context, key string, value []byte) error {
	s.data[key] = value
	return nil
}

func (s *fakeStore) PutTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *fakeStore) List(ctx context.Context, prefix string, limit int64) ([]string, error) {
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func putOrder(t *testing.T, s *fakeStore, o domain.Order) {
	t.Helper()
	b, err := json.Marshal(o)
	assert.NoError(t, err)
	s.data[o.ID] = b
}

func TestOrderRepo_SaveAssignsID(t *testing.T) {
	store := newFakeStore()
	repo := NewOrderRepository(store, zerolog.Nop())

	order := &domain.Order{Email: "kunde@example.com", Status: domain.StatusPending}
	assert.NoError(t, repo.Save(context.Background(), order))
	assert.True(t, strings.HasPrefix(order.ID, "order_"), order.ID)

	found, err := repo.FindByID(context.Background(), order.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, found) {
		assert.Equal(t, "kunde@example.com", found.Email)
		assert.Equal(t, order.ID, found.ID)
	}
}

func TestOrderRepo_FindByID_Missing(t *testing.T) {
	repo := NewOrderRepository(newFakeStore(), zerolog.Nop())

	found, err := repo.FindByID(context.Background(), "order_nope")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestOrderRepo_FindAll_SortsAndSkipsMalformed(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	putOrder(t, store, domain.Order{ID: "order_1", Email: "a@example.com", Timestamp: base, Status: domain.StatusCompleted})
	putOrder(t, store, domain.Order{ID: "order_2", Email: "b@example.com", Timestamp: base.Add(time.Hour), Status: domain.StatusPending})
	store.data["order_broken"] = []byte("{not json")
	store.data["temp_checkout_x"] = []byte(`{"email":"c@example.com"}`)

	repo := NewOrderRepository(store, zerolog.Nop())
	orders, err := repo.FindAll(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, orders, 2) {
		assert.Equal(t, "order_2", orders[0].ID)
		assert.Equal(t, "order_1", orders[1].ID)
	}
}

func TestOrderRepo_FindWaitingForStock(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	putOrder(t, store, domain.Order{ID: "order_new", ProductSlug: "windows-11-pro", Status: domain.StatusWaitingForStock, Timestamp: base.Add(time.Hour)})
	putOrder(t, store, domain.Order{ID: "order_old", ProductSlug: "windows-11-pro", Status: domain.StatusWaitingForStock, Timestamp: base})
	putOrder(t, store, domain.Order{ID: "order_other", ProductSlug: "capcut-pro", Status: domain.StatusWaitingForStock, Timestamp: base})
	putOrder(t, store, domain.Order{ID: "order_done", ProductSlug: "windows-11-pro", Status: domain.StatusCompleted, Timestamp: base})

	repo := NewOrderRepository(store, zerolog.Nop())
	waiting, err := repo.FindWaitingForStock(context.Background(), "windows-11-pro")

	assert.NoError(t, err)
	if assert.Len(t, waiting, 2) {
		assert.Equal(t, "order_old", waiting[0].ID)
		assert.Equal(t, "order_new", waiting[1].ID)
	}
}

func TestOrderRepo_FindByTxnID(t *testing.T) {
	store := newFakeStore()
	putOrder(t, store, domain.Order{ID: "order_1", PayPalTxnID: "TXN-1", Timestamp: time.Now()})
	putOrder(t, store, domain.Order{ID: "order_2", Timestamp: time.Now()})

	repo := NewOrderRepository(store, zerolog.Nop())

	found, err := repo.FindByTxnID(context.Background(), "TXN-1")
	assert.NoError(t, err)
	if assert.NotNil(t, found) {
		assert.Equal(t, "order_1", found.ID)
	}

	missing, err := repo.FindByTxnID(context.Background(), "TXN-404")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	// Orders without a transaction id never match an empty lookup.
	none, err := repo.FindByTxnID(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestOrderRepo_CheckoutPayloadRoundtrip(t *testing.T) {
	store := newFakeStore()
	repo := NewOrderRepository(store, zerolog.Nop())

	payload := []byte(`{"email":"kunde@example.com"}`)
	assert.NoError(t, repo.SaveCheckoutPayload(context.Background(), "tok", payload, 3*time.Hour))
	assert.Equal(t, 3*time.Hour, store.ttls["temp_checkout_tok"])

	got, err := repo.GetCheckoutPayload(context.Background(), "tok")
	assert.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestInventoryRepo_Roundtrip(t *testing.T) {
	store := newFakeStore()
	repo := NewInventoryRepository(store)

	keys, err := repo.GetKeys(context.Background(), "windows-11-pro")
	assert.NoError(t, err)
	assert.Empty(t, keys)

	assert.NoError(t, repo.PutKeys(context.Background(), "windows-11-pro", []string{"K-1", "K-2"}))

	keys, err = repo.GetKeys(context.Background(), "windows-11-pro")
	assert.NoError(t, err)
	assert.Equal(t, []string{"K-1", "K-2"}, keys)
}

func TestCatalogRepo_Roundtrip(t *testing.T) {
	store := newFakeStore()
	repo := NewCatalogRepository(store)

	products, err := repo.ListProducts(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, products)

	assert.NoError(t, repo.SaveProducts(context.Background(), []domain.Product{{Name: "Windows 11 Pro", Slug: "windows-11-pro"}}))
	products, err = repo.ListProducts(context.Background())
	assert.NoError(t, err)
	if assert.Len(t, products, 1) {
		assert.Equal(t, "windows-11-pro", products[0].Slug)
	}

	links, err := repo.GetDownloadLinks(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, links)

	assert.NoError(t, repo.SaveDownloadLinks(context.Background(), map[string]string{"windows-11-pro": "https://dl.example/win11"}))
	links, err = repo.GetDownloadLinks(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "https://dl.example/win11", links["windows-11-pro"])
}
