package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fiffu/indexwatch/config"
	"github.com/fiffu/indexwatch/lib"
	"github.com/fiffu/indexwatch/lib/blackhole"
	"github.com/fiffu/indexwatch/lib/feed"
	"github.com/fiffu/indexwatch/lib/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Sugar().Errorw("HTTP server stopped", "err", err)
				}
			}()
			log.Sugar().Infow("HTTP server listening", "addr", addr)
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("indexwatch", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/indexers", func(r chi.Router) {
			r.Get("/", ctrl.listIndexers)
			r.Post("/", ctrl.addIndexer)
			r.Post("/test", ctrl.testFeed)
			r.Get("/{name}", ctrl.getIndexer)
			r.Delete("/{name}", ctrl.removeIndexer)
		})
		r.Post("/blackhole", ctrl.blackhole)
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
	}
	ctrl.reject(w, status, err)
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "err", err)
		return
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func statusFor(err error) int {
	var (
		malformed *feed.MalformedURLError
		format    *feed.FormatError
		provider  *feed.ProviderError
		transport *feed.TransportError
	)
	switch {
	case errors.Is(err, lib.ErrIndexerNotFound):
		return http.StatusNotFound
	case errors.Is(err, lib.ErrInvalidName), errors.As(err, &malformed), errors.As(err, &format):
		return http.StatusBadRequest
	case errors.Is(err, lib.ErrEmptyFeed), errors.Is(err, blackhole.ErrMagnet), errors.Is(err, blackhole.ErrEmptyFilename):
		return http.StatusUnprocessableEntity
	case errors.As(err, &provider), errors.As(err, &transport), errors.Is(err, blackhole.ErrEmptyDownload):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (ctrl *controller) listIndexers(w http.ResponseWriter, r *http.Request) {
	recs, err := ctrl.svc.ListIndexers(r.Context())
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, FromMany[models.Indexer, IndexerView](recs))
}

func (ctrl *controller) addIndexer(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	link := r.FormValue("url")

	if name == "" || link == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("name and url are required"))
		return
	}

	rec, err := ctrl.svc.AddIndexer(r.Context(), name, link)
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, IndexerView{}.From(*rec))
}

func (ctrl *controller) getIndexer(w http.ResponseWriter, r *http.Request) {
	rec, err := ctrl.svc.GetIndexer(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, IndexerView{}.From(*rec))
}

func (ctrl *controller) removeIndexer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := ctrl.svc.RemoveIndexer(r.Context(), name); err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"removed": name})
}

func (ctrl *controller) testFeed(w http.ResponseWriter, r *http.Request) {
	link := r.FormValue("url")
	if link == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	item, err := ctrl.svc.TestFeed(r.Context(), link)
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, ItemView{}.From(item))
}

func (ctrl *controller) blackhole(w http.ResponseWriter, r *http.Request) {
	link := r.FormValue("url")
	if link == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	path, err := ctrl.svc.Blackhole(r.Context(), link)
	if err != nil {
		ctrl.fail(w, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, map[string]any{"path": path})
}
