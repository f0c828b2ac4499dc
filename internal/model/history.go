package model

import "time"

// FetchStatus is the final state of a recorded fetch.
type FetchStatus string

const (
	FetchStatusDone   FetchStatus = "done"
	FetchStatusFailed FetchStatus = "failed"
)

// FetchRecord is one submitted fetch as kept in the local history. Stage and
// Error are set only for failures.
type FetchRecord struct {
	ID         string      `json:"id"`
	URL        string      `json:"url"`
	Service    Service     `json:"service"`
	NotebookID string      `json:"notebook"`
	Title      string      `json:"title,omitempty"`
	SourceURL  string      `json:"sourceUrl,omitempty"`
	DocID      string      `json:"docId,omitempty"`
	Path       string      `json:"path,omitempty"`
	Status     FetchStatus `json:"status"`
	Stage      string      `json:"stage,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}
