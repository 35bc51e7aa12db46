package originallyappeared_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/repo/memory"
)

// spyRepo records every write it forwards to an in-memory repository.
type spyRepo struct {
	oa.Repository
	mu     sync.Mutex
	writes []string
	getErr error
	setErr error
}

func (s *spyRepo) GetRecordMeta(ctx context.Context, id uuid.UUID, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.Repository.GetRecordMeta(ctx, id, key)
}

func (s *spyRepo) SetRecordMeta(ctx context.Context, id uuid.UUID, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.mu.Lock()
	s.writes = append(s.writes, key)
	s.mu.Unlock()
	return s.Repository.SetRecordMeta(ctx, id, key, value)
}

func (s *spyRepo) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type fakeTokens struct {
	valid string
}

func (f *fakeTokens) Issue(ctx context.Context, action string) (string, error) {
	return f.valid, nil
}

func (f *fakeTokens) Verify(ctx context.Context, token, action string) bool {
	return token == f.valid && action == oa.NonceAction
}

type fakeAuthz struct {
	caps    map[string]bool
	checked []string
}

func (f *fakeAuthz) Can(ctx context.Context, capability string, recordID uuid.UUID) bool {
	f.checked = append(f.checked, capability)
	return f.caps[capability]
}

type fakeCanonical struct{}

func (fakeCanonical) EmitCanonical(ctx context.Context, w io.Writer, view *oa.View) error {
	_, err := fmt.Fprintf(w, "<link rel=\"canonical\" href=\"%s\" />\n", view.URL)
	return err
}

type recordingSink struct {
	saved []oa.Attribution
	err   error
}

func (r *recordingSink) AttributionSaved(ctx context.Context, id uuid.UUID, a oa.Attribution) error {
	r.saved = append(r.saved, a)
	return r.err
}

type countingMetrics struct {
	counts map[string]int
}

func (c *countingMetrics) IncrementCounter(name string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[name]++
}

type fixture struct {
	plugin  *oa.Plugin
	repo    *spyRepo
	tokens  *fakeTokens
	authz   *fakeAuthz
	sink    *recordingSink
	metrics *countingMetrics
	post    *oa.Record
	page    *oa.Record
}

func newFixture(t *testing.T, opts ...oa.Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:    &spyRepo{Repository: memory.New()},
		tokens:  &fakeTokens{valid: "good-token"},
		authz:   &fakeAuthz{caps: map[string]bool{oa.CapEditPost: true, oa.CapEditPage: true}},
		sink:    &recordingSink{},
		metrics: &countingMetrics{},
	}

	base := []oa.Option{
		oa.WithMetaRepository(f.repo),
		oa.WithTokens(f.tokens),
		oa.WithAuthorizer(f.authz),
		oa.WithCanonicalEmitter(fakeCanonical{}),
		oa.WithEventSink(f.sink),
		oa.WithMetrics(f.metrics),
	}
	p, err := oa.New(append(base, opts...)...)
	require.NoError(t, err)
	f.plugin = p

	ctx := context.Background()
	now := time.Now().UTC()
	f.post = &oa.Record{ID: uuid.New(), Type: oa.RecordTypePost, Slug: "hello", Title: "Hello", CreatedAt: now, UpdatedAt: now}
	f.page = &oa.Record{ID: uuid.New(), Type: oa.RecordTypePage, Slug: "about", Title: "About", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.repo.CreateRecord(ctx, f.post))
	require.NoError(t, f.repo.CreateRecord(ctx, f.page))
	return f
}

// seed writes metadata directly, bypassing the spy's write log.
func (f *fixture) seed(t *testing.T, id uuid.UUID, a oa.Attribution) {
	t.Helper()
	require.NoError(t, oa.NewMetaStore(f.repo.Repository).Save(context.Background(), id, a))
}

var errBackend = errors.New("backend unavailable")
