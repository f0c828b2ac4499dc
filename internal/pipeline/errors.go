package pipeline

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/webfetch/internal/i18n"
	"github.com/sells-group/webfetch/internal/scrape"
	"github.com/sells-group/webfetch/pkg/siyuan"
)

// ErrBusy is returned when a submit is already in flight on the dialog.
var ErrBusy = eris.New("pipeline: fetch already in progress")

// ValidationError is a rejected request. No network call was made.
type ValidationError struct {
	Key     i18n.Key
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotebookLoadError wraps a failed notebook refresh.
type NotebookLoadError struct {
	Err error
}

func (e *NotebookLoadError) Error() string { return "pipeline: load notebooks: " + e.Err.Error() }

func (e *NotebookLoadError) Unwrap() error { return e.Err }

// FetchError is a failure after validation. Text is what the user was shown.
type FetchError struct {
	Stage string
	Text  string
	Err   error
}

func (e *FetchError) Error() string { return "pipeline: " + e.Stage + ": " + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// UserMessage returns the message to show for err: the provider or host
// message when there is one, otherwise the error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *scrape.ProviderAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var httpErr *scrape.ProviderHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	var hostErr *siyuan.Error
	if errors.As(err, &hostErr) {
		return hostErr.Msg
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return err.Error()
}
