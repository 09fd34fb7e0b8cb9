package services

import (
	"time"

	"github.com/rs/zerolog"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/mocks"
)

const (
	TestProductSlug = "windows-11-pro"
	TestEmail       = "kunde@example.com"
	TestAdminEmail  = "admin@example.com"
)

func CreateMockOrder(id string, slug string, status domain.OrderStatus, ts time.Time) domain.Order {
	return domain.Order{
		ID:          id,
		OrderNumber: "ORD-PPA-20260101-1234",
		Email:       TestEmail,
		Product:     "Windows 11 Pro",
		ProductSlug: slug,
		Amount:      "12.99",
		Currency:    "EUR",
		Timestamp:   ts,
		Status:      status,
	}
}

func newFulfillmentService(
	orders *mocks.MockOrderRepository,
	inventory *mocks.MockInventoryRepository,
	catalog *mocks.MockCatalogRepository,
	m *mocks.MockMailer,
	pub *mocks.MockPublisher,
) *FulfillmentService {
	// Mailer and publisher are optional collaborators; tests pass nil to
	// exercise the disabled paths.
	svc := NewFulfillmentService(orders, inventory, catalog, nil, nil, NewProductLocks(), zerolog.Nop())
	if m != nil {
		svc.mailer = m
	}
	if pub != nil {
		svc.publisher = pub
	}
	return svc
}
