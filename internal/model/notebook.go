package model

// NotebookInfo is a top-level document container owned by the host.
type NotebookInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed,omitempty"`
}
