package settings

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/pkg/siyuan"
)

// Storage is a single key-value record owned by the host.
type Storage interface {
	// Load returns the stored bytes, or nil when nothing is stored.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
}

// HostStorage keeps the record in the kernel's plugin storage directory.
type HostStorage struct {
	client siyuan.Client
	path   string
}

// NewHostStorage returns storage for key under the given plugin's directory.
func NewHostStorage(client siyuan.Client, plugin, key string) *HostStorage {
	return &HostStorage{client: client, path: siyuan.StoragePath(plugin, key)}
}

// Path returns the kernel file path of the record.
func (h *HostStorage) Path() string { return h.path }

func (h *HostStorage) Load(ctx context.Context) ([]byte, error) {
	return h.client.GetFile(ctx, h.path)
}

func (h *HostStorage) Save(ctx context.Context, data []byte) error {
	return h.client.PutFile(ctx, h.path, data)
}

func (h *HostStorage) Remove(ctx context.Context) error {
	return h.client.RemoveFile(ctx, h.path)
}

// Store caches the normalized settings for the session. Concurrent Ensure
// calls share a single storage read.
type Store struct {
	storage Storage
	group   singleflight.Group

	mu      sync.RWMutex
	loaded  bool
	current model.PluginSettings
}

// NewStore creates a Store backed by storage.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage, current: Defaults()}
}

// Ensure loads the settings once and returns them.
func (s *Store) Ensure(ctx context.Context) (model.PluginSettings, error) {
	s.mu.RLock()
	if s.loaded {
		cur := s.current
		s.mu.RUnlock()
		return cur, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do("load", func() (any, error) {
		s.mu.RLock()
		if s.loaded {
			cur := s.current
			s.mu.RUnlock()
			return cur, nil
		}
		s.mu.RUnlock()

		// The read is shared, so one caller's cancellation must not fail the rest.
		raw, err := s.storage.Load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, eris.Wrap(err, "settings: load")
		}
		next := Normalize(raw)

		s.mu.Lock()
		if s.loaded {
			// A Save landed while the read was in flight.
			next = s.current
		} else {
			s.current = next
			s.loaded = true
		}
		s.mu.Unlock()

		zap.L().Debug("settings: loaded",
			zap.Bool("stored", len(raw) > 0),
			zap.String("default_service", next.DefaultService.String()),
		)
		return next, nil
	})
	if err != nil {
		return Defaults(), err
	}
	return v.(model.PluginSettings), nil
}

// Get returns the in-memory settings without loading.
func (s *Store) Get() model.PluginSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save persists next and makes it current.
func (s *Store) Save(ctx context.Context, next model.PluginSettings) error {
	data, err := json.Marshal(next)
	if err != nil {
		return eris.Wrap(err, "settings: marshal")
	}
	if err := s.storage.Save(ctx, data); err != nil {
		return eris.Wrap(err, "settings: save")
	}

	s.mu.Lock()
	s.current = next
	s.loaded = true
	s.mu.Unlock()

	zap.L().Info("settings: saved", zap.String("default_service", next.DefaultService.String()))
	return nil
}

// Update loads the current settings, applies p and saves the result.
func (s *Store) Update(ctx context.Context, p Patch) (model.PluginSettings, error) {
	cur, err := s.Ensure(ctx)
	if err != nil {
		return cur, err
	}
	next := p.Apply(cur)
	if err := s.Save(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

// Remove deletes the stored record and resets to defaults.
func (s *Store) Remove(ctx context.Context) error {
	if err := s.storage.Remove(ctx); err != nil {
		return eris.Wrap(err, "settings: remove")
	}

	s.mu.Lock()
	s.current = Defaults()
	s.loaded = false
	s.mu.Unlock()

	zap.L().Info("settings: removed")
	return nil
}
