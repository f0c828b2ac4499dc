package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sells-group/webfetch/internal/document"
	"github.com/sells-group/webfetch/internal/i18n"
	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/notebook"
	"github.com/sells-group/webfetch/internal/scrape"
	"github.com/sells-group/webfetch/pkg/siyuan"
)

// fakeKernel emulates the kernel endpoints used by the dialog.
type fakeKernel struct {
	srv *httptest.Server

	calls atomic.Int32

	mu         sync.Mutex
	notebooks  string
	createResp string
	created    []siyuan.CreateDocRequest
}

func newFakeKernel(t *testing.T) *fakeKernel {
	t.Helper()
	k := &fakeKernel{
		notebooks:  `{"code":0,"msg":"","data":{"notebooks":[{"id":"nb1","name":"Inbox","closed":false},{"id":"nb2","name":"Archive","closed":true}]}}`,
		createResp: `{"code":0,"msg":"","data":"20240101120000-abcdefg"}`,
	}
	k.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k.calls.Add(1)
		k.mu.Lock()
		defer k.mu.Unlock()
		switch r.URL.Path {
		case "/api/notebook/lsNotebooks":
			w.Write([]byte(k.notebooks))
		case "/api/filetree/createDocWithMd":
			var req siyuan.CreateDocRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			k.created = append(k.created, req)
			w.Write([]byte(k.createResp))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(k.srv.Close)
	return k
}

func (k *fakeKernel) client() siyuan.Client {
	return siyuan.NewClient(siyuan.WithBaseURL(k.srv.URL), siyuan.WithRateLimit(0))
}

func (k *fakeKernel) createdDocs() []siyuan.CreateDocRequest {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]siyuan.CreateDocRequest(nil), k.created...)
}

type staticSettings struct {
	s   model.PluginSettings
	err error
}

func (s staticSettings) Ensure(context.Context) (model.PluginSettings, error) {
	return s.s, s.err
}

type recordingOpener struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (o *recordingOpener) Open(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ids = append(o.ids, id)
	return o.err
}

func (o *recordingOpener) opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.ids...)
}

func defaultTestSettings() model.PluginSettings {
	return model.PluginSettings{
		FirecrawlAPIKey:   "fc-key",
		DefaultNotebookID: "nb1",
		DefaultService:    model.ServiceFirecrawl,
		AutoOpenNote:      true,
	}
}

// newTestDialog wires a dialog against the fake kernel with real
// collaborators. factory may be nil to use the real adapters.
func newTestDialog(k *fakeKernel, s model.PluginSettings, factory scrape.Factory, opener Opener) *Dialog {
	if factory == nil {
		factory = scrape.NewFactory(scrape.Options{})
	}
	client := k.client()
	return NewDialog(Deps{
		Settings:  staticSettings{s: s},
		Notebooks: notebook.NewCache(client),
		Documents: document.NewCreator(client),
		Scrapers:  factory,
		Opener:    opener,
		Labels:    i18n.For("en_US"),
	})
}

func fixedScraper(sc scrape.Scraper) scrape.Factory {
	return func(model.Service, model.PluginSettings) (scrape.Scraper, error) { return sc, nil }
}

type recordingHistory struct {
	mu   sync.Mutex
	recs []model.FetchRecord
	err  error
}

func (h *recordingHistory) RecordFetch(_ context.Context, rec model.FetchRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
	return h.err
}

func (h *recordingHistory) records() []model.FetchRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.FetchRecord(nil), h.recs...)
}
