package main

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/webfetch/internal/config"
	"github.com/sells-group/webfetch/internal/document"
	"github.com/sells-group/webfetch/internal/i18n"
	"github.com/sells-group/webfetch/internal/notebook"
	"github.com/sells-group/webfetch/internal/pipeline"
	"github.com/sells-group/webfetch/internal/resilience"
	"github.com/sells-group/webfetch/internal/scrape"
	"github.com/sells-group/webfetch/internal/settings"
	"github.com/sells-group/webfetch/internal/store"
	"github.com/sells-group/webfetch/pkg/siyuan"
)

// appEnv holds the clients and caches shared by the commands. One env is one
// session: settings are loaded once and the notebook list is cached.
type appEnv struct {
	Kernel    siyuan.Client
	Settings  *settings.Store
	Notebooks *notebook.Cache
	Documents *document.Creator
	Scrapers  scrape.Factory
	Labels    i18n.Labels
	Storage   *settings.HostStorage
	// History is nil when history.path is empty.
	History *store.SQLiteStore
}

// initEnv validates the loaded config for mode and builds the env. The
// history database is opened when configured.
func initEnv(mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	env := newEnv(cfg)
	if cfg.History.Path != "" {
		h, err := openHistory(context.Background(), cfg.History.Path)
		if err != nil {
			return nil, err
		}
		env.History = h
	}
	return env, nil
}

func openHistory(ctx context.Context, path string) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(path)
	if err != nil {
		return nil, eris.Wrap(err, "history: open")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "history: migrate")
	}
	return st, nil
}

// Close releases the history database.
func (e *appEnv) Close() {
	if e.History == nil {
		return
	}
	if err := e.History.Close(); err != nil {
		zap.L().Warn("history: close failed", zap.Error(err))
	}
}

// newEnv wires every collaborator from c.
func newEnv(c *config.Config) *appEnv {
	httpClient := &http.Client{Timeout: c.HTTP.Timeout()}

	kernel := siyuan.NewClient(
		siyuan.WithBaseURL(c.SiYuan.BaseURL),
		siyuan.WithToken(c.SiYuan.Token),
		siyuan.WithHTTPClient(httpClient),
		siyuan.WithRateLimit(c.SiYuan.RateLimit),
	)

	retry := resilience.SingleAttempt()
	if c.Scrape.MaxAttempts > 1 {
		retry = resilience.NewPolicy(c.Scrape.MaxAttempts)
	}

	storage := settings.NewHostStorage(kernel, c.SiYuan.PluginName, settings.StorageKey)
	return &appEnv{
		Kernel:    kernel,
		Settings:  settings.NewStore(storage),
		Notebooks: notebook.NewCache(kernel),
		Documents: document.NewCreator(kernel),
		Scrapers: scrape.NewFactory(scrape.Options{
			HTTPClient:  httpClient,
			JinaBaseURL: c.Jina.BaseURL,
			Retry:       retry,
		}),
		Labels:  i18n.For(c.Lang),
		Storage: storage,
	}
}

// newDialog opens a fetch dialog on the env. opener may be nil.
func (e *appEnv) newDialog(labels i18n.Labels, opener pipeline.Opener) *pipeline.Dialog {
	deps := pipeline.Deps{
		Settings:  e.Settings,
		Notebooks: e.Notebooks,
		Documents: e.Documents,
		Scrapers:  e.Scrapers,
		Opener:    opener,
		Labels:    labels,
	}
	if e.History != nil {
		deps.History = e.History
	}
	return pipeline.NewDialog(deps)
}
