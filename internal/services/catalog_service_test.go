package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/mocks"
)

func newCatalogService(
	orders *mocks.MockOrderRepository,
	inv *mocks.MockInventoryRepository,
	cat *mocks.MockCatalogRepository,
) *CatalogService {
	return NewCatalogService(orders, inv, cat, NewProductLocks(), zerolog.Nop())
}

func TestCatalogService_CreateProduct(t *testing.T) {
	t.Run("fills defaults and appends", func(t *testing.T) {
		cat := new(mocks.MockCatalogRepository)
		cat.On("ListProducts", mock.Anything).Return([]domain.Product{}, nil)

		var saved []domain.Product
		cat.On("SaveProducts", mock.Anything, mock.AnythingOfType("[]domain.Product")).Return(nil).Run(func(args mock.Arguments) {
			saved = args.Get(1).([]domain.Product)
		})

		svc := newCatalogService(new(mocks.MockOrderRepository), new(mocks.MockInventoryRepository), cat)
		created, err := svc.CreateProduct(context.Background(), domain.Product{Name: "CapCut Pro", Slug: "capcut-pro"})

		assert.NoError(t, err)
		assert.Equal(t, "0.00", created.Price)
		assert.Equal(t, "EUR", created.Currency)
		assert.Equal(t, "other", created.Category)
		assert.NotEmpty(t, created.ID)
		if assert.Len(t, saved, 1) {
			assert.Equal(t, "capcut-pro", saved[0].Slug)
		}
		cat.AssertExpectations(t)
	})

	t.Run("rejects duplicate slug", func(t *testing.T) {
		cat := new(mocks.MockCatalogRepository)
		cat.On("ListProducts", mock.Anything).Return([]domain.Product{{Slug: "capcut-pro"}}, nil)

		svc := newCatalogService(new(mocks.MockOrderRepository), new(mocks.MockInventoryRepository), cat)
		_, err := svc.CreateProduct(context.Background(), domain.Product{Name: "CapCut Pro", Slug: "capcut-pro"})

		assert.ErrorIs(t, err, ErrProductExists)
		cat.AssertNotCalled(t, "SaveProducts", mock.Anything, mock.Anything)
	})
}

func TestCatalogService_DeleteProduct(t *testing.T) {
	t.Run("removes the product", func(t *testing.T) {
		cat := new(mocks.MockCatalogRepository)
		cat.On("ListProducts", mock.Anything).Return([]domain.Product{{Slug: "a"}, {Slug: "b"}}, nil)
		cat.On("SaveProducts", mock.Anything, []domain.Product{{Slug: "b"}}).Return(nil)

		svc := newCatalogService(new(mocks.MockOrderRepository), new(mocks.MockInventoryRepository), cat)
		assert.NoError(t, svc.DeleteProduct(context.Background(), "a"))
		cat.AssertExpectations(t)
	})

	t.Run("unknown slug", func(t *testing.T) {
		cat := new(mocks.MockCatalogRepository)
		cat.On("ListProducts", mock.Anything).Return([]domain.Product{{Slug: "a"}}, nil)

		svc := newCatalogService(new(mocks.MockOrderRepository), new(mocks.MockInventoryRepository), cat)
		assert.ErrorIs(t, svc.DeleteProduct(context.Background(), "zzz"), ErrProductNotFound)
	})
}

func TestCatalogService_InventoryOverview(t *testing.T) {
	cat := new(mocks.MockCatalogRepository)
	cat.On("ListProducts", mock.Anything).Return([]domain.Product{
		{Name: "Adobe CC", Slug: "adobe-cc"},
	}, nil)

	inv := new(mocks.MockInventoryRepository)
	inv.On("GetKeys", mock.Anything, "adobe-cc").Return([]string{"A-1", "A-2"}, nil)
	for _, slug := range defaultSlugs {
		inv.On("GetKeys", mock.Anything, slug).Return([]string{}, nil)
	}

	svc := newCatalogService(new(mocks.MockOrderRepository), inv, cat)
	overview, err := svc.InventoryOverview(context.Background())

	assert.NoError(t, err)
	// Built-in slugs always show up, plus everything from the catalog.
	assert.Len(t, overview, len(defaultSlugs)+1)
	assert.Equal(t, 2, overview["adobe-cc"].Available)
	assert.Equal(t, "Adobe CC", overview["adobe-cc"].Name)
	assert.Equal(t, 0, overview["windows-11-pro"].Available)
	inv.AssertExpectations(t)
}

func TestCatalogService_DeleteKey(t *testing.T) {
	t.Run("removes only the first occurrence", func(t *testing.T) {
		inv := new(mocks.MockInventoryRepository)
		inv.On("GetKeys", mock.Anything, TestProductSlug).Return([]string{"K-1", "K-2", "K-1"}, nil)
		inv.On("PutKeys", mock.Anything, TestProductSlug, []string{"K-2", "K-1"}).Return(nil)

		svc := newCatalogService(new(mocks.MockOrderRepository), inv, new(mocks.MockCatalogRepository))
		assert.NoError(t, svc.DeleteKey(context.Background(), TestProductSlug, "K-1"))
		inv.AssertExpectations(t)
	})

	t.Run("unknown key", func(t *testing.T) {
		inv := new(mocks.MockInventoryRepository)
		inv.On("GetKeys", mock.Anything, TestProductSlug).Return([]string{"K-1"}, nil)

		svc := newCatalogService(new(mocks.MockOrderRepository), inv, new(mocks.MockCatalogRepository))
		assert.ErrorIs(t, svc.DeleteKey(context.Background(), TestProductSlug, "nope"), ErrKeyNotFound)
		inv.AssertNotCalled(t, "PutKeys", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCatalogService_SetDownloadLink(t *testing.T) {
	cat := new(mocks.MockCatalogRepository)
	cat.On("GetDownloadLinks", mock.Anything).Return(map[string]string{"old": "https://dl.example/old"}, nil)
	cat.On("SaveDownloadLinks", mock.Anything, map[string]string{
		"old":           "https://dl.example/old",
		TestProductSlug: "https://dl.example/win11",
	}).Return(nil)

	svc := newCatalogService(new(mocks.MockOrderRepository), new(mocks.MockInventoryRepository), cat)
	assert.NoError(t, svc.SetDownloadLink(context.Background(), TestProductSlug, "https://dl.example/win11"))
	cat.AssertExpectations(t)
}
