package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/repository"
)

var (
	ErrProductExists   = errors.New("product already exists")
	ErrProductNotFound = errors.New("product not found")
	ErrKeyNotFound     = errors.New("key not found")
)

// Slugs that ship with the store and always show up in the inventory
// overview, whether or not they have a catalog entry.
var defaultSlugs = []string{"windows-11-pro", "office-2024-ltsc", "capcut-pro"}

type ProductInventory struct {
	Name      string   `json:"name"`
	Available int      `json:"available"`
	Keys      []string `json:"keys"`
}

type CatalogService struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	catalog   repository.CatalogRepository
	locks     *ProductLocks
	logger    zerolog.Logger
}

func NewCatalogService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	catalog repository.CatalogRepository,
	locks *ProductLocks,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		orders:    orders,
		inventory: inventory,
		catalog:   catalog,
		locks:     locks,
		logger:    logger.With().Str("component", "CatalogService").Logger(),
	}
}

func (s *CatalogService) PublicProducts(ctx context.Context) ([]domain.PublicProduct, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicProduct, 0, len(products))
	for _, p := range products {
		out = append(out, p.Public())
	}
	return out, nil
}

func (s *CatalogService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.FindAll(ctx)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range products {
		if existing.Slug == p.Slug {
			return nil, fmt.Errorf("%w: %s", ErrProductExists, p.Slug)
		}
	}

	if p.Price == "" {
		p.Price = "0.00"
	}
	if p.Currency == "" {
		p.Currency = "EUR"
	}
	if p.Category == "" {
		p.Category = "other"
	}
	p.ID = strconv.FormatInt(time.Now().UnixMilli(), 10)
	p.CreatedAt = time.Now().UTC()

	if err := s.catalog.SaveProducts(ctx, append(products, p)); err != nil {
		return nil, err
	}
	s.logger.Info().Str("slug", p.Slug).Msg("product created")
	return &p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, slug string) error {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return err
	}
	kept := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Slug != slug {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(products) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, slug)
	}
	if err := s.catalog.SaveProducts(ctx, kept); err != nil {
		return err
	}
	s.logger.Info().Str("slug", slug).Msg("product deleted")
	return nil
}

// InventoryOverview reports stock per product across both the built-in
// slugs and everything in the catalog.
func (s *CatalogService) InventoryOverview(ctx context.Context) (map[string]ProductInventory, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(products)+len(defaultSlugs))
	for _, slug := range defaultSlugs {
		names[slug] = slug
	}
	for _, p := range products {
		names[p.Slug] = p.Name
	}

	overview := make(map[string]ProductInventory, len(names))
	for slug, name := range names {
		keys, err := s.inventory.GetKeys(ctx, slug)
		if err != nil {
			return nil, err
		}
		overview[slug] = ProductInventory{Name: name, Available: len(keys), Keys: keys}
	}
	return overview, nil
}

// DeleteKey removes the first occurrence of a key from a product's pool.
func (s *CatalogService) DeleteKey(ctx context.Context, productSlug, key string) error {
	if err := s.locks.Acquire(ctx, productSlug); err != nil {
		return err
	}
	defer s.locks.Release(productSlug)

	keys, err := s.inventory.GetKeys(ctx, productSlug)
	if err != nil {
		return err
	}
	for i, k := range keys {
		if k == key {
			keys = append(keys[:i], keys[i+1:]...)
			return s.inventory.PutKeys(ctx, productSlug, keys)
		}
	}
	return fmt.Errorf("%w: %s", ErrKeyNotFound, productSlug)
}

func (s *CatalogService) SetDownloadLink(ctx context.Context, productSlug, link string) error {
	links, err := s.catalog.GetDownloadLinks(ctx)
	if err != nil {
		return err
	}
	if links == nil {
		links = map[string]string{}
	}
	links[productSlug] = link
	return s.catalog.SaveDownloadLinks(ctx, links)
}
