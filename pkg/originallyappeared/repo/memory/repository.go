package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
)

// Repository implements originallyappeared.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*oa.Record
	bySlug  map[string]uuid.UUID
	meta    map[uuid.UUID]map[string]string // record_id -> key -> value
}

// New creates a new in-memory repository
func New() oa.Repository {
	return &Repository{
		records: make(map[uuid.UUID]*oa.Record),
		bySlug:  make(map[string]uuid.UUID),
		meta:    make(map[uuid.UUID]map[string]string),
	}
}

// Record operations

func (r *Repository) CreateRecord(ctx context.Context, record *oa.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; exists {
		return fmt.Errorf("record %s already exists", record.ID)
	}
	if _, taken := r.bySlug[record.Slug]; taken {
		return fmt.Errorf("slug %q already in use", record.Slug)
	}

	// Create a copy to avoid external modifications
	recordCopy := *record
	r.records[record.ID] = &recordCopy
	r.bySlug[record.Slug] = record.ID

	return nil
}

func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (*oa.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, oa.ErrRecordNotFound
	}

	// Return a copy to prevent external modifications
	recordCopy := *record
	return &recordCopy, nil
}

func (r *Repository) GetRecordBySlug(ctx context.Context, slug string) (*oa.Record, error) {
	r.mu.RLock()
	id, exists := r.bySlug[slug]
	r.mu.RUnlock()
	if !exists {
		return nil, oa.ErrRecordNotFound
	}
	return r.GetRecord(ctx, id)
}

func (r *Repository) UpdateRecord(ctx context.Context, record *oa.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.records[record.ID]
	if !exists {
		return oa.ErrRecordNotFound
	}
	if owner, taken := r.bySlug[record.Slug]; taken && owner != record.ID {
		return fmt.Errorf("slug %q already in use", record.Slug)
	}

	delete(r.bySlug, existing.Slug)
	recordCopy := *record
	recordCopy.UpdatedAt = time.Now().UTC()
	r.records[record.ID] = &recordCopy
	r.bySlug[record.Slug] = record.ID

	return nil
}

// DeleteRecord removes the record together with its metadata.
func (r *Repository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.records[id]
	if !exists {
		return oa.ErrRecordNotFound
	}

	delete(r.bySlug, record.Slug)
	delete(r.records, id)
	delete(r.meta, id)
	return nil
}

func (r *Repository) ListRecords(ctx context.Context) ([]*oa.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*oa.Record, 0, len(r.records))
	for _, record := range r.records {
		recordCopy := *record
		result = append(result, &recordCopy)
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Record metadata operations

func (r *Repository) GetRecordMeta(ctx context.Context, recordID uuid.UUID, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.meta[recordID][key], nil
}

func (r *Repository) SetRecordMeta(ctx context.Context, recordID uuid.UUID, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Verify record exists
	if _, exists := r.records[recordID]; !exists {
		return oa.ErrRecordNotFound
	}

	if r.meta[recordID] == nil {
		r.meta[recordID] = make(map[string]string)
	}
	r.meta[recordID][key] = value

	return nil
}
