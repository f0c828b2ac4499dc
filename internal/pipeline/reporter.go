package pipeline

import "sync"

// StatusLine is one reported status.
type StatusLine struct {
	Text    string `json:"text"`
	IsError bool   `json:"isError"`
}

// Recorder is a Reporter that keeps everything it is told.
type Recorder struct {
	mu       sync.Mutex
	statuses []StatusLine
	notices  []string
}

// Status implements Reporter.
func (r *Recorder) Status(text string, isError bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, StatusLine{Text: text, IsError: isError})
}

// Notify implements Reporter.
func (r *Recorder) Notify(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, text)
}

// Statuses returns the reported statuses in order.
func (r *Recorder) Statuses() []StatusLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StatusLine(nil), r.statuses...)
}

// Notices returns the notifications in order.
func (r *Recorder) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// Last returns the current status line.
func (r *Recorder) Last() (StatusLine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return StatusLine{}, false
	}
	return r.statuses[len(r.statuses)-1], true
}
