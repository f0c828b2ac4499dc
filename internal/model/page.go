package model

// ScrapeResult is a provider-neutral scraped page. It is produced per fetch
// and consumed immediately by the markdown assembler.
type ScrapeResult struct {
	Title     string `json:"title"`
	SourceURL string `json:"sourceUrl"`
	Markdown  string `json:"markdown"`
}
