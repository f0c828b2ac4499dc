// Package settings loads, normalizes and persists the user's fetch settings.
package settings

import (
	"encoding/json"
	"strings"

	"github.com/sells-group/webfetch/internal/model"
)

// StorageKey names the settings record in the host's plugin storage.
const StorageKey = "web-fetch-settings"

// Defaults returns the settings used for absent keys.
func Defaults() model.PluginSettings {
	return model.PluginSettings{
		FirecrawlAPIKey:   "",
		FirecrawlEndpoint: "",
		DefaultNotebookID: "",
		DefaultService:    model.ServiceFirecrawl,
		AutoOpenNote:      true,
	}
}

// Normalize decodes a stored record and fills it with defaults. Absent or
// malformed input yields Defaults.
func Normalize(raw []byte) model.PluginSettings {
	if len(raw) == 0 {
		return Defaults()
	}
	var stored map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Defaults()
	}
	return NormalizeMap(stored)
}

// NormalizeMap merges a decoded record over Defaults, key by key. Values of
// the wrong JSON type are ignored. autoOpenNote also accepts the legacy
// string form, where only "true" is true.
func NormalizeMap(stored map[string]any) model.PluginSettings {
	s := Defaults()
	if stored == nil {
		return s
	}

	if v, ok := stored["firecrawlApiKey"].(string); ok {
		s.FirecrawlAPIKey = v
	}
	if v, ok := stored["firecrawlEndpoint"].(string); ok {
		s.FirecrawlEndpoint = v
	}
	if v, ok := stored["defaultNotebookId"].(string); ok {
		s.DefaultNotebookID = v
	}
	if v, ok := stored["defaultService"].(string); ok {
		s.DefaultService = model.Service(v)
	}

	switch v := stored["autoOpenNote"].(type) {
	case bool:
		s.AutoOpenNote = v
	case string:
		s.AutoOpenNote = v == "true"
	}
	return s
}

// Patch holds settings panel edits. Nil fields are left unchanged.
type Patch struct {
	FirecrawlAPIKey   *string
	FirecrawlEndpoint *string
	DefaultNotebookID *string
	DefaultService    *model.Service
	AutoOpenNote      *bool
}

// Apply returns s with the patch applied. Key and endpoint are trimmed.
func (p Patch) Apply(s model.PluginSettings) model.PluginSettings {
	if p.FirecrawlAPIKey != nil {
		s.FirecrawlAPIKey = strings.TrimSpace(*p.FirecrawlAPIKey)
	}
	if p.FirecrawlEndpoint != nil {
		s.FirecrawlEndpoint = strings.TrimSpace(*p.FirecrawlEndpoint)
	}
	if p.DefaultNotebookID != nil {
		s.DefaultNotebookID = *p.DefaultNotebookID
	}
	if p.DefaultService != nil {
		s.DefaultService = *p.DefaultService
	}
	if p.AutoOpenNote != nil {
		s.AutoOpenNote = *p.AutoOpenNote
	}
	return s
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.FirecrawlAPIKey == nil && p.FirecrawlEndpoint == nil &&
		p.DefaultNotebookID == nil && p.DefaultService == nil && p.AutoOpenNote == nil
}

// Masked returns s with the API key partially hidden for display.
func Masked(s model.PluginSettings) model.PluginSettings {
	key := s.FirecrawlAPIKey
	switch {
	case key == "":
	case len(key) <= 8:
		s.FirecrawlAPIKey = strings.Repeat("*", len(key))
	default:
		s.FirecrawlAPIKey = key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
	}
	return s
}
