package main

import (
	"fmt"
	"io"

	"github.com/sells-group/webfetch/internal/tui"
)

// lineReporter writes dialog statuses as styled lines. Notifications are
// dropped when they repeat the last status.
type lineReporter struct {
	w    io.Writer
	last string
}

func (r *lineReporter) Status(text string, isError bool) {
	r.last = text
	fmt.Fprintln(r.w, tui.StatusStyle(isError).Render(text))
}

func (r *lineReporter) Notify(text string) {
	if text == r.last {
		return
	}
	fmt.Fprintln(r.w, tui.SuccessStyle().Render(text))
}
