package services

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ProductLocks serializes inventory read-modify-write per product slug. The
// key-value store has no compare-and-swap, so a purchase racing a restock on
// the same product would lose updates without this. Only races within one
// process are covered; concurrent writers in other processes remain
// last-write-wins.
type ProductLocks struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func NewProductLocks() *ProductLocks {
	return &ProductLocks{sems: make(map[string]*semaphore.Weighted)}
}

func (l *ProductLocks) Acquire(ctx context.Context, productSlug string) error {
	l.mu.Lock()
	sem, ok := l.sems[productSlug]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[productSlug] = sem
	}
	l.mu.Unlock()

	return sem.Acquire(ctx, 1)
}

func (l *ProductLocks) Release(productSlug string) {
	l.mu.Lock()
	sem := l.sems[productSlug]
	l.mu.Unlock()

	if sem != nil {
		sem.Release(1)
	}
}
