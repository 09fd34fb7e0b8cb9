package repository

import "context"

// InventoryRepository holds the ordered list of unused license keys per
// product slug. Keys are fungible; assignment always pops the front.
type InventoryRepository interface {
	// GetKeys returns the unused keys for a product, empty when none exist.
	GetKeys(ctx context.Context, productSlug string) ([]string, error)
	PutKeys(ctx context.Context, productSlug string, keys []string) error
}
