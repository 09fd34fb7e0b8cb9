package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"softcrate-backend/internal/domain"
	"softcrate-backend/internal/infra/kv"
	"softcrate-backend/internal/repository"
)

const (
	productsListKey  = "PRODUCTS_LIST"
	downloadLinksKey = "DOWNLOAD_LINKS"
)

type catalogRepo struct {
	store kv.Store
}

func NewCatalogRepository(store kv.Store) repository.CatalogRepository {
	return &catalogRepo{store: store}
}

func (r *catalogRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	b, err := r.store.Get(ctx, productsListKey)
	if err != nil {
		return nil, fmt.Errorf("get products list: %w", err)
	}
	if b == nil {
		return []domain.Product{}, nil
	}
	var products []domain.Product
	if err := json.Unmarshal(b, &products); err != nil {
		return nil, fmt.Errorf("decode products list: %w", err)
	}
	return products, nil
}

func (r *catalogRepo) SaveProducts(ctx context.Context, products []domain.Product) error {
	b, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal products list: %w", err)
	}
	if err := r.store.Put(ctx, productsListKey, b); err != nil {
		return fmt.Errorf("put products list: %w", err)
	}
	return nil
}

func (r *catalogRepo) GetDownloadLinks(ctx context.Context) (map[string]string, error) {
	b, err := r.store.Get(ctx, downloadLinksKey)
	if err != nil {
		return nil, fmt.Errorf("get download links: %w", err)
	}
	if b == nil {
		return map[string]string{}, nil
	}
	var links map[string]string
	if err := json.Unmarshal(b, &links); err != nil {
		return nil, fmt.Errorf("decode download links: %w", err)
	}
	return links, nil
}

func (r *catalogRepo) SaveDownloadLinks(ctx context.Context, links map[string]string) error {
	b, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("marshal download links: %w", err)
	}
	if err := r.store.Put(ctx, downloadLinksKey, b); err != nil {
		return fmt.Errorf("put download links: %w", err)
	}
	return nil
}
