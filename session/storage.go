package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSnapshot is returned by [Storage.Load] when no persisted record exists
// under the requested name. Hydration treats it as a clean empty start.
var ErrNoSnapshot = errors.New("no persisted session snapshot")

// Storage persists the session record under a fixed name. Implementations
// must be safe for concurrent use; the Store serializes its own writes but
// other processes may share the backend.
type Storage interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
}

// MemoryStorage is an in-process [Storage] used by tests and ephemeral hosts.
type MemoryStorage struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryStorage creates an empty [MemoryStorage].
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.records[name]
	if !ok {
		return nil, ErrNoSnapshot
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.records[name] = stored
	return nil
}
