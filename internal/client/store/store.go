package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cookiecutter/internal/client/models"
)

const (
	// WorkspaceKey is the fixed key the work-item collection is stored under.
	WorkspaceKey = "workspace"
	// CredentialKey holds the stored session credential.
	CredentialKey = "access_token"
)

// KV is a byte-oriented key/value store. Get returns (nil, nil) when the key
// does not exist.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Updater is implemented by KVs that can read and replace a value
// atomically.
type Updater interface {
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
}

// Store persists the complete workspace collection.
type Store interface {
	// Load returns (nil, nil) if no collection was ever saved.
	Load(ctx context.Context) ([]models.WorkItem, error)
	// Save overwrites the whole collection.
	Save(ctx context.Context, items []models.WorkItem) error
}

// WorkspaceStore implements Store over any KV.
type WorkspaceStore struct {
	kv  KV
	key string
}

func NewWorkspaceStore(kv KV) *WorkspaceStore {
	return &WorkspaceStore{kv: kv, key: WorkspaceKey}
}

func (s *WorkspaceStore) Load(ctx context.Context) ([]models.WorkItem, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	items, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode workspace: %w", err)
	}
	return items, nil
}

// Save writes the collection. On an Updater the write is transactional and
// skipped when the stored bytes are already equal.
func (s *WorkspaceStore) Save(ctx context.Context, items []models.WorkItem) error {
	raw := Encode(items)
	var err error
	if u, ok := s.kv.(Updater); ok {
		err = u.Update(ctx, s.key, func([]byte) ([]byte, error) { return raw, nil })
	} else {
		err = s.kv.Set(ctx, s.key, raw)
	}
	if err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}
