package services

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/infra/paypal"
	"softcrate-backend/internal/mocks"
)

func newCheckoutService(
	orders *mocks.MockOrderRepository,
	inv *mocks.MockInventoryRepository,
	cat *mocks.MockCatalogRepository,
	pp *mocks.MockPayPalClient,
	m *mocks.MockMailer,
	pub *mocks.MockPublisher,
) *CheckoutService {
	fulfillment := newFulfillmentService(orders, inv, cat, nil, nil)
	cfg := CheckoutConfig{
		BrandName:          "Softcrate",
		Currency:           "EUR",
		SuccessURL:         "https://softcrate.de/danke.html",
		CancelURL:          "https://softcrate.de/fehler.html",
		DefaultProductSlug: TestProductSlug,
		AdminEmail:         TestAdminEmail,
	}
	svc := NewCheckoutService(orders, cat, fulfillment, pp, nil, nil, cfg, zerolog.Nop())
	if m != nil {
		svc.mailer = m
	}
	if pub != nil {
		svc.publisher = pub
	}
	return svc
}

func testCart() []domain.OrderItem {
	return []domain.OrderItem{
		{Name: "Windows 11 Pro", Slug: TestProductSlug, Price: 12.99, Quantity: 1},
	}
}

func TestCheckoutService_CreatePayPalOrder(t *testing.T) {
	t.Run("small cart rides inline in custom_id", func(t *testing.T) {
		pp := new(mocks.MockPayPalClient)
		pp.On("CreateOrder", mock.Anything, mock.MatchedBy(func(p paypal.CreateOrderParams) bool {
			return strings.HasPrefix(p.CustomID, "{") &&
				p.Total == "12.99" &&
				p.BrandName == "Softcrate"
		})).Return(&paypal.CheckoutOrder{ID: "PP-1", ApprovalURL: "https://paypal.test/approve"}, nil)

		svc := newCheckoutService(new(mocks.MockOrderRepository), new(mocks.MockInventoryRepository), new(mocks.MockCatalogRepository), pp, nil, nil)
		order, err := svc.CreatePayPalOrder(context.Background(), TestEmail, testCart())

		assert.NoError(t, err)
		assert.Equal(t, "PP-1", order.ID)
		pp.AssertExpectations(t)
	})

	t.Run("oversized cart is parked under a token", func(t *testing.T) {
		items := make([]domain.OrderItem, 6)
		for i := range items {
			items[i] = domain.OrderItem{Name: "Some Fairly Long Product Name Edition", Slug: "some-fairly-long-product", Price: 9.99, Quantity: 1}
		}

		orders := new(mocks.MockOrderRepository)
		orders.On("SaveCheckoutPayload", mock.Anything, mock.MatchedBy(func(token string) bool {
			return strings.HasPrefix(token, "checkout_")
		}), mock.Anything, checkoutPayloadTTL).Return(nil)

		pp := new(mocks.MockPayPalClient)
		pp.On("CreateOrder", mock.Anything, mock.MatchedBy(func(p paypal.CreateOrderParams) bool {
			return strings.HasPrefix(p.CustomID, "kv:checkout_")
		})).Return(&paypal.CheckoutOrder{ID: "PP-2", ApprovalURL: "https://paypal.test/approve"}, nil)

		svc := newCheckoutService(orders, new(mocks.MockInventoryRepository), new(mocks.MockCatalogRepository), pp, nil, nil)
		_, err := svc.CreatePayPalOrder(context.Background(), TestEmail, items)

		assert.NoError(t, err)
		orders.AssertExpectations(t)
		pp.AssertExpectations(t)
	})
}

func TestCheckoutService_CapturePayPalOrder(t *testing.T) {
	customID := `{"email":"kunde@example.com","items":[{"name":"Windows 11 Pro","slug":"windows-11-pro","price":12.99,"quantity":1}]}`

	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockOrderRepository, *mocks.MockInventoryRepository, *mocks.MockCatalogRepository, *mocks.MockPayPalClient, *mocks.MockMailer, *mocks.MockPublisher, *[]domain.Order)
		expectedStatus domain.OrderStatus
	}{
		{
			name: "stock available - completed with key",
			setupMocks: func(orders *mocks.MockOrderRepository, inv *mocks.MockInventoryRepository, cat *mocks.MockCatalogRepository, pp *mocks.MockPayPalClient, m *mocks.MockMailer, pub *mocks.MockPublisher, saved *[]domain.Order) {
				pp.On("CaptureOrder", mock.Anything, "PP-1").Return(&paypal.CaptureResult{
					Status: "COMPLETED", TxnID: "TXN-1", CustomID: customID,
					Amount: "12.99", Currency: "EUR", PayerName: "Max Mustermann", PayerEmail: "payer@example.com",
				}, nil)
				inv.On("GetKeys", mock.Anything, TestProductSlug).Return([]string{"WIN-KEY"}, nil)
				inv.On("PutKeys", mock.Anything, TestProductSlug, []string{}).Return(nil)
				orders.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
					*saved = append(*saved, *args.Get(1).(*domain.Order))
				})
				cat.On("GetDownloadLinks", mock.Anything).Return(map[string]string{}, nil)
				m.On("Send", mock.Anything, "kunde@example.com", mock.Anything, mock.Anything).Return(nil).Once()
				pub.On("Publish", mock.Anything, "order.created", mock.Anything).Return(nil).Once()
			},
			expectedStatus: domain.StatusCompleted,
		},
		{
			name: "stock empty - queued for stock",
			setupMocks: func(orders *mocks.MockOrderRepository, inv *mocks.MockInventoryRepository, cat *mocks.MockCatalogRepository, pp *mocks.MockPayPalClient, m *mocks.MockMailer, pub *mocks.MockPublisher, saved *[]domain.Order) {
				pp.On("CaptureOrder", mock.Anything, "PP-1").Return(&paypal.CaptureResult{
					Status: "COMPLETED", TxnID: "TXN-2", CustomID: customID,
					Amount: "12.99", Currency: "EUR",
				}, nil)
				inv.On("GetKeys", mock.Anything, TestProductSlug).Return([]string{}, nil)
				orders.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
					*saved = append(*saved, *args.Get(1).(*domain.Order))
				})
				m.On("Send", mock.Anything, "kunde@example.com", mock.Anything, mock.Anything).Return(nil).Once()
				pub.On("Publish", mock.Anything, "order.created", mock.Anything).Return(nil).Once()
			},
			expectedStatus: domain.StatusWaitingForStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(mocks.MockOrderRepository)
			inv := new(mocks.MockInventoryRepository)
			cat := new(mocks.MockCatalogRepository)
			pp := new(mocks.MockPayPalClient)
			m := new(mocks.MockMailer)
			pub := new(mocks.MockPublisher)
			var saved []domain.Order

			tt.setupMocks(orders, inv, cat, pp, m, pub, &saved)
			svc := newCheckoutService(orders, inv, cat, pp, m, pub)

			outcome, err := svc.CapturePayPalOrder(context.Background(), "PP-1", "")

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, outcome.Status)
			if assert.Len(t, saved, 1) {
				order := saved[0]
				assert.Equal(t, tt.expectedStatus, order.Status)
				assert.Equal(t, "kunde@example.com", order.Email)
				assert.Equal(t, TestProductSlug, order.ProductSlug)
				assert.Equal(t, "paypal", order.PaymentMethod)
				if tt.expectedStatus == domain.StatusCompleted {
					if assert.NotNil(t, order.LicenseKey) {
						assert.Equal(t, "WIN-KEY", *order.LicenseKey)
					}
				} else {
					assert.Nil(t, order.LicenseKey)
				}
			}

			orders.AssertExpectations(t)
			inv.AssertExpectations(t)
			pp.AssertExpectations(t)
			m.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}

	t.Run("non-completed capture creates no order", func(t *testing.T) {
		pp := new(mocks.MockPayPalClient)
		pp.On("CaptureOrder", mock.Anything, "PP-3").Return(&paypal.CaptureResult{Status: "PENDING"}, nil)

		orders := new(mocks.MockOrderRepository)
		svc := newCheckoutService(orders, new(mocks.MockInventoryRepository), new(mocks.MockCatalogRepository), pp, nil, nil)

		outcome, err := svc.CapturePayPalOrder(context.Background(), "PP-3", "")

		assert.NoError(t, err)
		assert.Equal(t, domain.StatusPending, outcome.Status)
		assert.Empty(t, outcome.OrderID)
		orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		pp.AssertExpectations(t)
	})
}

func ipnForm() url.Values {
	return url.Values{
		"payment_status": {"Completed"},
		"txn_id":         {"TXN-9"},
		"custom":         {`{"email":"kunde@example.com","items":[{"name":"Windows 11 Pro","slug":"windows-11-pro","price":12.99,"quantity":1}]}`},
		"mc_gross":       {"12.99"},
		"mc_currency":    {"EUR"},
		"first_name":     {"Max"},
		"last_name":      {"Mustermann"},
		"payer_email":    {"payer@example.com"},
	}
}

func TestCheckoutService_ProcessIPN(t *testing.T) {
	t.Run("verified completed payment creates an order", func(t *testing.T) {
		form := ipnForm()

		pp := new(mocks.MockPayPalClient)
		pp.On("VerifyIPN", mock.Anything, form).Return(true, nil)

		orders := new(mocks.MockOrderRepository)
		orders.On("FindByTxnID", mock.Anything, "TXN-9").Return(nil, nil)

		var saved []domain.Order
		orders.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
			saved = append(saved, *args.Get(1).(*domain.Order))
		})

		inv := new(mocks.MockInventoryRepository)
		inv.On("GetKeys", mock.Anything, TestProductSlug).Return([]string{}, nil)

		svc := newCheckoutService(orders, inv, new(mocks.MockCatalogRepository), pp, nil, nil)
		err := svc.ProcessIPN(context.Background(), form)

		assert.NoError(t, err)
		if assert.Len(t, saved, 1) {
			assert.Equal(t, "Max Mustermann", saved[0].CustomerName)
			assert.Equal(t, "TXN-9", saved[0].PayPalTxnID)
			assert.Equal(t, domain.StatusWaitingForStock, saved[0].Status)
		}
		orders.AssertExpectations(t)
		pp.AssertExpectations(t)
	})

	t.Run("already processed txn is skipped", func(t *testing.T) {
		form := ipnForm()

		pp := new(mocks.MockPayPalClient)
		pp.On("VerifyIPN", mock.Anything, form).Return(true, nil)

		existing := CreateMockOrder("order_dup", TestProductSlug, domain.StatusCompleted, time.Now().UTC())
		orders := new(mocks.MockOrderRepository)
		orders.On("FindByTxnID", mock.Anything, "TXN-9").Return(&existing, nil)

		svc := newCheckoutService(orders, new(mocks.MockInventoryRepository), new(mocks.MockCatalogRepository), pp, nil, nil)
		err := svc.ProcessIPN(context.Background(), form)

		assert.NoError(t, err)
		orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("amount mismatch is rejected", func(t *testing.T) {
		form := ipnForm()
		form.Set("mc_gross", "0.99")

		pp := new(mocks.MockPayPalClient)
		pp.On("VerifyIPN", mock.Anything, form).Return(true, nil)

		orders := new(mocks.MockOrderRepository)
		orders.On("FindByTxnID", mock.Anything, "TXN-9").Return(nil, nil)

		svc := newCheckoutService(orders, new(mocks.MockInventoryRepository), new(mocks.MockCatalogRepository), pp, nil, nil)
		err := svc.ProcessIPN(context.Background(), form)

		assert.ErrorIs(t, err, ErrAmountMismatch)
		orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unverified notification is rejected", func(t *testing.T) {
		form := ipnForm()

		pp := new(mocks.MockPayPalClient)
		pp.On("VerifyIPN", mock.Anything, form).Return(false, nil)

		svc := newCheckoutService(new(mocks.MockOrderRepository), new(mocks.MockInventoryRepository), new(mocks.MockCatalogRepository), pp, nil, nil)
		err := svc.ProcessIPN(context.Background(), form)

		assert.ErrorIs(t, err, ErrIPNNotVerified)
	})

	t.Run("non-completed status is ignored", func(t *testing.T) {
		form := ipnForm()
		form.Set("payment_status", "Pending")

		pp := new(mocks.MockPayPalClient)
		pp.On("VerifyIPN", mock.Anything, form).Return(true, nil)

		orders := new(mocks.MockOrderRepository)
		svc := newCheckoutService(orders, new(mocks.MockInventoryRepository), new(mocks.MockCatalogRepository), pp, nil, nil)
		err := svc.ProcessIPN(context.Background(), form)

		assert.NoError(t, err)
		orders.AssertNotCalled(t, "FindByTxnID", mock.Anything, mock.Anything)
	})
}

func TestCheckoutService_VoucherCheckout(t *testing.T) {
	tests := []struct {
		name           string
		voucherType    string
		expectedPrefix string
		expectedName   string
	}{
		{name: "amazon voucher", voucherType: "amazon", expectedPrefix: "ORD-AMZ-", expectedName: "Amazon Gutschein Kunde"},
		{name: "paysafecard voucher", voucherType: "psc", expectedPrefix: "ORD-PSC-", expectedName: "Paysafecard PIN Kunde"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(mocks.MockOrderRepository)
			var saved []domain.Order
			orders.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
				saved = append(saved, *args.Get(1).(*domain.Order))
			})

			m := new(mocks.MockMailer)
			m.On("Send", mock.Anything, TestAdminEmail, mock.Anything, mock.Anything).Return(nil).Once()

			pub := new(mocks.MockPublisher)
			pub.On("Publish", mock.Anything, "order.created", mock.Anything).Return(nil).Once()

			svc := newCheckoutService(orders, new(mocks.MockInventoryRepository), new(mocks.MockCatalogRepository), new(mocks.MockPayPalClient), m, pub)
			order, err := svc.VoucherCheckout(context.Background(), TestEmail, "VOUCHER-123", tt.voucherType, testCart())

			assert.NoError(t, err)
			assert.Equal(t, domain.StatusPendingAmazon, order.Status)
			assert.True(t, strings.HasPrefix(order.OrderNumber, tt.expectedPrefix), order.OrderNumber)
			assert.Equal(t, tt.expectedName, order.CustomerName)
			assert.Equal(t, "VOUCHER-123", order.VoucherCode)
			assert.Equal(t, tt.voucherType, order.VoucherType)
			assert.Nil(t, order.LicenseKey)

			orders.AssertExpectations(t)
			m.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}
