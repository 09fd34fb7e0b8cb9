package mocks

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/stretchr/testify/mock"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/infra/mailer"
	"softcrate-backend/internal/infra/paypal"
	"softcrate-backend/internal/infra/sellhub"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindWaitingForStock(ctx context.Context, productSlug string) ([]domain.Order, error) {
	args := m.Called(ctx, productSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByTxnID(ctx context.Context, txnID string) (*domain.Order, error) {
	args := m.Called(ctx, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) SaveCheckoutPayload(ctx context.Context, token string, payload []byte, ttl time.Duration) error {
	args := m.Called(ctx, token, payload, ttl)
	return args.Error(0)
}

func (m *MockOrderRepository) GetCheckoutPayload(ctx context.Context, token string) ([]byte, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) GetKeys(ctx context.Context, productSlug string) ([]string, error) {
	args := m.Called(ctx, productSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInventoryRepository) PutKeys(ctx context.Context, productSlug string, keys []string) error {
	args := m.Called(ctx, productSlug, keys)
	return args.Error(0)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockCatalogRepository) SaveProducts(ctx context.Context, products []domain.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

func (m *MockCatalogRepository) GetDownloadLinks(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockCatalogRepository) SaveDownloadLinks(ctx context.Context, links map[string]string) error {
	args := m.Called(ctx, links)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to string, kind mailer.Kind, data mailer.TemplateData) error {
	args := m.Called(ctx, to, kind, data)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

type MockPayPalClient struct {
	mock.Mock
}

func (m *MockPayPalClient) CreateOrder(ctx context.Context, p paypal.CreateOrderParams) (*paypal.CheckoutOrder, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.CheckoutOrder), args.Error(1)
}

func (m *MockPayPalClient) CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureResult, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paypal.CaptureResult), args.Error(1)
}

func (m *MockPayPalClient) VerifyIPN(ctx context.Context, form url.Values) (bool, error) {
	args := m.Called(ctx, form)
	return args.Bool(0), args.Error(1)
}

type MockSellhubClient struct {
	mock.Mock
}

func (m *MockSellhubClient) CreateCheckout(ctx context.Context, p sellhub.CheckoutParams) (*sellhub.Checkout, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sellhub.Checkout), args.Error(1)
}

func (m *MockSellhubClient) Variants(ctx context.Context, rawQuery string) (json.RawMessage, error) {
	args := m.Called(ctx, rawQuery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
