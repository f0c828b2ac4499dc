// Package pipeline runs the fetch dialog: validate the request, scrape the
// page, assemble markdown and create the document, reporting status as it
// goes.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/webfetch/internal/document"
	"github.com/sells-group/webfetch/internal/i18n"
	"github.com/sells-group/webfetch/internal/markdown"
	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/notebook"
	"github.com/sells-group/webfetch/internal/scrape"
)

// Reporter receives progress from the dialog. Status replaces the status
// line; Notify shows a transient message.
type Reporter interface {
	Status(text string, isError bool)
	Notify(text string)
}

// Opener opens a created document in the host.
type Opener interface {
	Open(ctx context.Context, docID string) error
}

// SettingsSource provides the current settings.
type SettingsSource interface {
	Ensure(ctx context.Context) (model.PluginSettings, error)
}

// NotebookSource provides the notebook directory.
type NotebookSource interface {
	Refresh(ctx context.Context, force bool) ([]model.NotebookInfo, error)
	List() []model.NotebookInfo
}

// DocumentCreator creates documents in the host.
type DocumentCreator interface {
	Create(ctx context.Context, notebookID, title, md string) (*document.Created, error)
}

// History records finished fetches.
type History interface {
	RecordFetch(ctx context.Context, rec model.FetchRecord) error
}

// Deps are the collaborators of a Dialog. Opener and History may be nil.
type Deps struct {
	Settings  SettingsSource
	Notebooks NotebookSource
	Documents DocumentCreator
	Scrapers  scrape.Factory
	Opener    Opener
	History   History
	Labels    i18n.Labels
}

// Request is a submitted dialog form. Empty Service and NotebookID fall back
// to the configured defaults.
type Request struct {
	URL        string        `json:"url"`
	Service    model.Service `json:"service,omitempty"`
	NotebookID string        `json:"notebook,omitempty"`
}

// Outcome describes a completed fetch.
type Outcome struct {
	FetchID    string        `json:"fetchId"`
	Service    model.Service `json:"service"`
	NotebookID string        `json:"notebook"`
	Title      string        `json:"title"`
	SourceURL  string        `json:"sourceUrl"`
	DocID      string        `json:"docId,omitempty"`
	Path       string        `json:"path"`
	Opened     bool          `json:"opened"`
}

// Dialog is one fetch dialog. A dialog runs at most one submit at a time;
// separate dialogs are independent.
type Dialog struct {
	deps Deps
	busy atomic.Bool
}

// NewDialog creates a Dialog.
func NewDialog(deps Deps) *Dialog {
	return &Dialog{deps: deps}
}

// Busy reports whether a submit is in flight.
func (d *Dialog) Busy() bool { return d.busy.Load() }

// Labels returns the dialog's label table.
func (d *Dialog) Labels() i18n.Labels { return d.deps.Labels }

// FillNotebooks refreshes the notebook directory and returns the open
// notebooks for the selector. On failure the load error is reported and the
// dialog stays usable.
func (d *Dialog) FillNotebooks(ctx context.Context, force bool, rep Reporter) ([]model.NotebookInfo, error) {
	list, err := d.deps.Notebooks.Refresh(ctx, force)
	if err != nil {
		zap.L().Warn("pipeline: notebook load failed", zap.Bool("forced", force), zap.Error(err))
		rep.Status(d.deps.Labels.Get(i18n.ErrorNotebookLoad), true)
		return notebook.Open(d.deps.Notebooks.List()), &NotebookLoadError{Err: err}
	}
	return notebook.Open(list), nil
}

// Submit validates req and runs the fetch. Steps run strictly in order.
func (d *Dialog) Submit(ctx context.Context, req Request, rep Reporter) (*Outcome, error) {
	labels := d.deps.Labels
	if !d.busy.CompareAndSwap(false, true) {
		rep.Status(labels.Get(i18n.ErrorBusy), true)
		return nil, ErrBusy
	}
	defer d.busy.Store(false)

	s, err := d.deps.Settings.Ensure(ctx)
	if err != nil {
		return nil, d.fail(rep, "settings", err)
	}

	url := strings.TrimSpace(req.URL)
	notebookID := strings.TrimSpace(req.NotebookID)
	if notebookID == "" {
		notebookID = s.DefaultNotebookID
	}
	service := req.Service
	if service == "" {
		service = s.DefaultService
	}

	if verr := validate(url, notebookID, service, s, labels); verr != nil {
		rep.Status(verr.Message, true)
		return nil, verr
	}

	out := &Outcome{FetchID: uuid.NewString(), Service: service, NotebookID: notebookID}
	log := zap.L().With(
		zap.String("fetch_id", out.FetchID),
		zap.String("url", url),
		zap.String("service", service.String()),
	)
	log.Info("pipeline: fetch started")

	scraper, err := d.deps.Scrapers(service, s)
	if err != nil {
		var unsupported *scrape.UnsupportedServiceError
		if errors.As(err, &unsupported) {
			verr := &ValidationError{Key: i18n.ErrorUnsupportedService, Message: labels.Get(i18n.ErrorUnsupportedService)}
			rep.Status(verr.Message, true)
			return nil, verr
		}
		d.remember(ctx, log, url, out, "scrape", err)
		return nil, d.fail(rep, "scrape", err)
	}

	rep.Status(labels.Get(i18n.StatusFetching), false)
	page, err := scraper.Scrape(ctx, url)
	if err != nil {
		log.Warn("pipeline: scrape failed", zap.Error(err))
		d.remember(ctx, log, url, out, "scrape", err)
		return nil, d.fail(rep, "scrape", err)
	}
	out.Title = page.Title
	out.SourceURL = page.SourceURL

	rep.Status(labels.Get(i18n.StatusCreating), false)
	md := markdown.Build(page.Title, page.SourceURL, page.Markdown, labels.Get(i18n.SourceLabel))
	created, err := d.deps.Documents.Create(ctx, notebookID, page.Title, md)
	if err != nil {
		log.Warn("pipeline: create failed", zap.Error(err))
		d.remember(ctx, log, url, out, "create", err)
		return nil, d.fail(rep, "create", err)
	}
	out.DocID = created.ID
	out.Path = created.Path

	done := labels.Get(i18n.StatusDone)
	rep.Status(done, false)
	rep.Notify(done)

	if created.Openable && s.AutoOpenNote && d.deps.Opener != nil {
		if err := d.deps.Opener.Open(ctx, created.ID); err != nil {
			log.Warn("pipeline: open document failed", zap.String("doc_id", created.ID), zap.Error(err))
		} else {
			out.Opened = true
		}
	}

	d.remember(ctx, log, url, out, "", nil)
	log.Info("pipeline: fetch complete",
		zap.String("doc_id", out.DocID),
		zap.String("path", out.Path),
		zap.Bool("opened", out.Opened),
	)
	return out, nil
}

func (d *Dialog) fail(rep Reporter, stage string, err error) error {
	text := d.deps.Labels.Get(i18n.ErrorFetchFailed) + ": " + UserMessage(err)
	rep.Status(text, true)
	rep.Notify(text)
	return &FetchError{Stage: stage, Text: text, Err: err}
}

// remember writes the fetch to History. A failed write is logged only.
func (d *Dialog) remember(ctx context.Context, log *zap.Logger, url string, out *Outcome, stage string, cause error) {
	if d.deps.History == nil {
		return
	}
	rec := model.FetchRecord{
		ID:         out.FetchID,
		URL:        url,
		Service:    out.Service,
		NotebookID: out.NotebookID,
		Title:      out.Title,
		SourceURL:  out.SourceURL,
		DocID:      out.DocID,
		Path:       out.Path,
		Status:     model.FetchStatusDone,
		CreatedAt:  time.Now(),
	}
	if cause != nil {
		rec.Status = model.FetchStatusFailed
		rec.Stage = stage
		rec.Error = UserMessage(cause)
	}
	if err := d.deps.History.RecordFetch(ctx, rec); err != nil {
		log.Warn("pipeline: record history failed", zap.Error(err))
	}
}

func validate(url, notebookID string, service model.Service, s model.PluginSettings, labels i18n.Labels) *ValidationError {
	var key i18n.Key
	switch {
	case url == "":
		key = i18n.ErrorMissingURL
	case notebookID == "":
		key = i18n.ErrorMissingNotebook
	case !service.Valid():
		key = i18n.ErrorUnsupportedService
	case service == model.ServiceFirecrawl &&
		strings.TrimSpace(s.FirecrawlAPIKey) == "" &&
		strings.TrimSpace(s.FirecrawlEndpoint) == "":
		key = i18n.ErrorMissingAPIKey
	default:
		return nil
	}
	return &ValidationError{Key: key, Message: labels.Get(key)}
}
