// Package notebook caches the host's notebook directory.
package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/webfetch/internal/model"
)

// Lister fetches the raw notebook listing from the host.
type Lister interface {
	ListNotebooks(ctx context.Context) (json.RawMessage, error)
}

// Extract reads a notebook listing that is either {"notebooks": [...]} or a
// bare array. Any other shape yields an empty list; array elements that are
// not notebook objects are skipped.
func Extract(raw json.RawMessage) []model.NotebookInfo {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []model.NotebookInfo{}
	}

	switch raw[0] {
	case '{':
		var wrapper struct {
			Notebooks json.RawMessage `json:"notebooks"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return []model.NotebookInfo{}
		}
		return decodeList(wrapper.Notebooks)
	case '[':
		return decodeList(raw)
	default:
		return []model.NotebookInfo{}
	}
}

func decodeList(raw json.RawMessage) []model.NotebookInfo {
	raw = bytes.TrimSpace(raw)
	out := []model.NotebookInfo{}
	if len(raw) == 0 || raw[0] != '[' {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var nb model.NotebookInfo
		if err := json.Unmarshal(item, &nb); err != nil {
			continue
		}
		out = append(out, nb)
	}
	return out
}

// Open returns the notebooks that are not closed.
func Open(list []model.NotebookInfo) []model.NotebookInfo {
	out := make([]model.NotebookInfo, 0, len(list))
	for _, nb := range list {
		if !nb.Closed {
			out = append(out, nb)
		}
	}
	return out
}

// Find returns the notebook with the given id.
func Find(list []model.NotebookInfo, id string) (model.NotebookInfo, bool) {
	for _, nb := range list {
		if nb.ID == id {
			return nb, true
		}
	}
	return model.NotebookInfo{}, false
}

// Cache holds the last fetched notebook list.
type Cache struct {
	lister Lister

	mu        sync.RWMutex
	notebooks []model.NotebookInfo
}

// NewCache creates an empty Cache.
func NewCache(lister Lister) *Cache {
	return &Cache{lister: lister}
}

// Refresh returns the cached list when it is non-empty and force is false.
// Otherwise it asks the host and replaces the cache with the result, even
// when the result is empty.
func (c *Cache) Refresh(ctx context.Context, force bool) ([]model.NotebookInfo, error) {
	if !force {
		if cached := c.List(); len(cached) > 0 {
			return cached, nil
		}
	}

	raw, err := c.lister.ListNotebooks(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "notebook: refresh")
	}
	list := Extract(raw)

	c.mu.Lock()
	c.notebooks = list
	c.mu.Unlock()

	zap.L().Debug("notebook: refreshed", zap.Int("count", len(list)), zap.Bool("forced", force))
	return cloneList(list), nil
}

// List returns a copy of the cached notebooks.
func (c *Cache) List() []model.NotebookInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneList(c.notebooks)
}

func cloneList(list []model.NotebookInfo) []model.NotebookInfo {
	out := make([]model.NotebookInfo, len(list))
	copy(out, list)
	return out
}
