// Package server 是推荐服务的 HTTP 接口（chi）。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/prodrec/config"
	"github.com/rushteam/prodrec/core"
	"github.com/rushteam/prodrec/pkg/logging"
	"github.com/rushteam/prodrec/recommend"
)

// CatalogLoader 在重建时重新读取商品目录
type CatalogLoader func(ctx context.Context) (*core.Catalog, error)

// Server 承载 HTTP 路由
type Server struct {
	svc         *recommend.Service
	loadCatalog CatalogLoader
	cfg         config.ServerConfig
	logger      zerolog.Logger
	handler     http.Handler
}

// New 创建 Server。loadCatalog 为 nil 时重建沿用当前目录。
func New(svc *recommend.Service, loadCatalog CatalogLoader, cfg config.ServerConfig) *Server {
	s := &Server{
		svc:         svc,
		loadCatalog: loadCatalog,
		cfg:         cfg,
		logger:      logging.With("server"),
	}
	s.handler = s.routes()
	return s
}

// Handler 返回路由
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(instrument(s.logger))
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
		}
		r.Get("/products", s.handleProducts)
		r.Get("/facets", s.handleFacets)
		r.Get("/products/{name}/recommendations", s.handleRecommend)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireToken(s.cfg.AdminToken))
			r.Post("/rebuild", s.handleRebuild)
		})
	})
	return r
}

// Run 监听并服务，ctx 取消时优雅退出。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
