package originallyappeared

import (
	"context"

	"github.com/google/uuid"
)

// MetaStore reads and writes the attribution fields of a record through the
// host's key/value facility. It performs no validation.
type MetaStore struct {
	repo MetaRepository
}

// NewMetaStore wraps a MetaRepository
func NewMetaStore(repo MetaRepository) *MetaStore {
	return &MetaStore{repo: repo}
}

// Get returns the value stored under key, or "" when unset.
func (s *MetaStore) Get(ctx context.Context, recordID uuid.UUID, key string) (string, error) {
	v, err := s.repo.GetRecordMeta(ctx, recordID, key)
	if err != nil {
		return "", &RecordError{RecordID: recordID, Op: "get " + key, Err: err}
	}
	return v, nil
}

// Set overwrites the value stored under key.
func (s *MetaStore) Set(ctx context.Context, recordID uuid.UUID, key, value string) error {
	if err := s.repo.SetRecordMeta(ctx, recordID, key, value); err != nil {
		return &RecordError{RecordID: recordID, Op: "set " + key, Err: err}
	}
	return nil
}

// Load reads all four fields of a record.
func (s *MetaStore) Load(ctx context.Context, recordID uuid.UUID) (Attribution, error) {
	var a Attribution
	fields := []*string{&a.Name, &a.SiteURL, &a.NoIndex, &a.CustomMessage}
	for i, key := range MetaKeys {
		v, err := s.Get(ctx, recordID, key)
		if err != nil {
			return Attribution{}, err
		}
		*fields[i] = v
	}
	return a, nil
}

// Save overwrites all four fields of a record, in declaration order.
func (s *MetaStore) Save(ctx context.Context, recordID uuid.UUID, a Attribution) error {
	values := []string{a.Name, a.SiteURL, a.NoIndex, a.CustomMessage}
	for i, key := range MetaKeys {
		if err := s.Set(ctx, recordID, key, values[i]); err != nil {
			return err
		}
	}
	return nil
}
