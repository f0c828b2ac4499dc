package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/webfetch/internal/i18n"
	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/pipeline"
	"github.com/sells-group/webfetch/internal/settings"
	"github.com/sells-group/webfetch/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fetch dialog as a JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port

		env, err := initEnv("serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the HTTP API over env. Each fetch request is its own
// dialog.
func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/notebooks", handleNotebooks(env))
		r.Get("/settings", handleGetSettings(env))
		r.Put("/settings", handlePutSettings(env))
		r.Post("/fetch", handleFetch(env))
		if env.History != nil {
			r.Get("/history", handleHistory(env))
			r.Get("/history/{id}", handleHistoryEntry(env))
		}
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// labelsFor picks the label table from Accept-Language, falling back to the
// configured language.
func labelsFor(env *appEnv, r *http.Request) i18n.Labels {
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		return i18n.For(lang)
	}
	return env.Labels
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error    string                `json:"error"`
	Key      i18n.Key              `json:"key,omitempty"`
	Statuses []pipeline.StatusLine `json:"statuses,omitempty"`
}

func handleNotebooks(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
		rec := &pipeline.Recorder{}
		d := env.newDialog(labelsFor(env, r), nil)

		list, err := d.FillNotebooks(r.Context(), force, rec)
		if err != nil {
			last, _ := rec.Last()
			writeJSON(w, http.StatusBadGateway, errorBody{Error: last.Text, Key: i18n.ErrorNotebookLoad})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notebooks": list})
	}
}

func handleGetSettings(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := env.Settings.Ensure(r.Context())
		if err != nil {
			writeJSON(w, http.StatusBadGateway, errorBody{Error: pipeline.UserMessage(err)})
			return
		}
		writeJSON(w, http.StatusOK, settings.Masked(s))
	}
}

// settingsPatchBody is the PUT /api/settings body. Absent keys are left
// unchanged.
type settingsPatchBody struct {
	FirecrawlAPIKey   *string        `json:"firecrawlApiKey"`
	FirecrawlEndpoint *string        `json:"firecrawlEndpoint"`
	DefaultNotebookID *string        `json:"defaultNotebookId"`
	DefaultService    *model.Service `json:"defaultService"`
	AutoOpenNote      *bool          `json:"autoOpenNote"`
}

func (b settingsPatchBody) patch() settings.Patch {
	return settings.Patch{
		FirecrawlAPIKey:   b.FirecrawlAPIKey,
		FirecrawlEndpoint: b.FirecrawlEndpoint,
		DefaultNotebookID: b.DefaultNotebookID,
		DefaultService:    b.DefaultService,
		AutoOpenNote:      b.AutoOpenNote,
	}
}

func handlePutSettings(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body settingsPatchBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
		if body.DefaultService != nil && !body.DefaultService.Valid() {
			labels := labelsFor(env, r)
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error: labels.Get(i18n.ErrorUnsupportedService),
				Key:   i18n.ErrorUnsupportedService,
			})
			return
		}

		next, err := env.Settings.Update(r.Context(), body.patch())
		if err != nil {
			writeJSON(w, http.StatusBadGateway, errorBody{Error: pipeline.UserMessage(err)})
			return
		}
		writeJSON(w, http.StatusOK, settings.Masked(next))
	}
}

type fetchResponse struct {
	*pipeline.Outcome
	Statuses []pipeline.StatusLine `json:"statuses"`
}

func handleFetch(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}

		rec := &pipeline.Recorder{}
		d := env.newDialog(labelsFor(env, r), nil)
		out, err := d.Submit(r.Context(), req, rec)

		var verr *pipeline.ValidationError
		var ferr *pipeline.FetchError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, fetchResponse{Outcome: out, Statuses: rec.Statuses()})
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Message, Key: verr.Key, Statuses: rec.Statuses()})
		case errors.As(err, &ferr):
			writeJSON(w, http.StatusBadGateway, errorBody{Error: ferr.Text, Key: i18n.ErrorFetchFailed, Statuses: rec.Statuses()})
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Statuses: rec.Statuses()})
		}
	}
}

func handleHistory(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		filter, err := historyFilter(q.Get("status"), q.Get("service"), limit)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		list, err := env.History.ListFetches(r.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		if list == nil {
			list = []model.FetchRecord{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"fetches": list})
	}
}

func handleHistoryEntry(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := env.History.GetFetch(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody{Error: "fetch not found"})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		default:
			writeJSON(w, http.StatusOK, rec)
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
