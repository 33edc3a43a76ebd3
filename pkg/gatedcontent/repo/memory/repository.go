// Package memory provides an in-memory implementation of the
// gatedcontent.Repository interface. It keeps published items in maps guarded
// by a read-write mutex and is intended for testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

// Repository is an in-memory implementation of gatedcontent.Repository
type Repository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*gatedcontent.ContentItem
}

// New creates a new in-memory repository
func New() gatedcontent.Repository {
	return &Repository{
		items: make(map[uuid.UUID]*gatedcontent.ContentItem),
	}
}

// CreateContent persists a published item
func (r *Repository) CreateContent(ctx context.Context, item *gatedcontent.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *item
	r.items[item.ID] = &copied
	return nil
}

// GetContent retrieves a published item by ID
func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*gatedcontent.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, gatedcontent.ErrContentNotFound
	}

	copied := *item
	return &copied, nil
}

// ListContentByOwner lists an owner's published items, newest first
func (r *Repository) ListContentByOwner(ctx context.Context, ownerID uuid.UUID) ([]*gatedcontent.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*gatedcontent.ContentItem
	for _, item := range r.items {
		if item.OwnerID == ownerID {
			copied := *item
			items = append(items, &copied)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

// DeleteContent removes a published item after checking ownership
func (r *Repository) DeleteContent(ctx context.Context, id uuid.UUID, requestingOwnerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return gatedcontent.ErrContentNotFound
	}
	if item.OwnerID != requestingOwnerID {
		return gatedcontent.ErrNotOwner
	}

	delete(r.items, id)
	return nil
}
