package model

// Service identifies a scraping provider.
type Service string

const (
	ServiceFirecrawl Service = "firecrawl"
	ServiceJina      Service = "jina"
)

// AllServices returns the supported providers in selector order.
func AllServices() []Service {
	return []Service{ServiceFirecrawl, ServiceJina}
}

// Valid reports whether s is a supported provider.
func (s Service) Valid() bool {
	switch s {
	case ServiceFirecrawl, ServiceJina:
		return true
	default:
		return false
	}
}

func (s Service) String() string { return string(s) }

// PluginSettings is the persisted user configuration. The JSON keys match the
// record stored in the host's plugin storage.
type PluginSettings struct {
	FirecrawlAPIKey   string  `json:"firecrawlApiKey" yaml:"firecrawl_api_key"`
	FirecrawlEndpoint string  `json:"firecrawlEndpoint" yaml:"firecrawl_endpoint"`
	DefaultNotebookID string  `json:"defaultNotebookId" yaml:"default_notebook_id"`
	DefaultService    Service `json:"defaultService" yaml:"default_service"`
	AutoOpenNote      bool    `json:"autoOpenNote" yaml:"auto_open_note"`
}
