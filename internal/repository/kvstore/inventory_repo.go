package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"softcrate-backend/internal/infra/kv"
	"softcrate-backend/internal/repository"
)

// License keys live under the bare product slug, so slugs must not collide
// with the reserved catalog record names.
type inventoryRepo struct {
	store kv.Store
}

func NewInventoryRepository(store kv.Store) repository.InventoryRepository {
	return &inventoryRepo{store: store}
}

func (r *inventoryRepo) GetKeys(ctx context.Context, productSlug string) ([]string, error) {
	b, err := r.store.Get(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get keys for %s: %w", productSlug, err)
	}
	if b == nil {
		return []string{}, nil
	}
	var keys []string
	if err := json.Unmarshal(b, &keys); err != nil {
		return nil, fmt.Errorf("decode keys for %s: %w", productSlug, err)
	}
	return keys, nil
}

func (r *inventoryRepo) PutKeys(ctx context.Context, productSlug string, keys []string) error {
	b, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshal keys for %s: %w", productSlug, err)
	}
	if err := r.store.Put(ctx, productSlug, b); err != nil {
		return fmt.Errorf("put keys for %s: %w", productSlug, err)
	}
	return nil
}
