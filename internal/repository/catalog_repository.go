package repository

import (
	"context"

	"softcrate-backend/internal/domain"
)

// CatalogRepository holds the product catalog and the slug-to-download-URL
// map, each stored as a single record.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SaveProducts(ctx context.Context, products []domain.Product) error

	GetDownloadLinks(ctx context.Context) (map[string]string, error)
	SaveDownloadLinks(ctx context.Context, links map[string]string) error
}
