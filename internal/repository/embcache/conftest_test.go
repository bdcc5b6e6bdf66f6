package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/casai-labs/furnish/internal/db"
	"github.com/casai-labs/furnish/internal/domain"
)

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	textCalls  int
	imageCalls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.textCalls++
	return m.result, m.err
}

func (m *mockEmbedder) EmbedImage(_ context.Context, _ []byte) (domain.EmbeddingResult, error) {
	m.imageCalls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ce := New(inner, inner, ms, nil, zap.NewNop())
	return ce, ms
}
