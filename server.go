package pubindex

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the local preview server: it serves the build output the way a
// static host would, plus a JSON lookup endpoint, an HTML relationship
// preview and metrics. With watch enabled it rebuilds on content changes.
type Server struct {
	Config   Config
	Echo     *echo.Echo
	Cache    *SiteCache
	Registry *prometheus.Registry

	log      *zap.Logger
	builder  *Builder
	requests *prometheus.CounterVec
	rebuilds *prometheus.CounterVec
	buildMu  sync.Mutex
}

// NewServer creates a Server with middleware and routes in place.
func NewServer(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s := &Server{
		Config:   cfg,
		Echo:     echo.New(),
		Cache:    NewSiteCache(PostsIndexer(cfg, log), cfg.ArtifactPath(), time.Minute),
		Registry: reg,
		log:      log,
		builder:  NewBuilder(cfg, log),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preview_http_requests_total",
			Help: "Preview server requests by route and status code.",
		}, []string{"route", "code"}),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preview_rebuilds_total",
			Help: "Watch-triggered rebuilds by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(s.requests, s.rebuilds)

	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	e := s.Echo

	e.GET("/healthz", handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	e.GET("/api/relations/:slug", s.handleRelations)
	e.GET("/preview", s.handlePreview)
	e.GET("/preview/", s.handlePreview)

	// Build output: blog-data.json, notes-data.json, rss.xml, sitemap.xml
	// and whatever else the site ships.
	e.Static("/", s.Config.Build.OutputDir)
}

// Rebuild runs a forced build and drops the cached view of the output.
func (s *Server) Rebuild(ctx context.Context) (Report, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	report, err := s.builder.Run(ctx, BuildOptions{Force: true})
	s.Cache.Invalidate()
	if err != nil {
		s.rebuilds.WithLabelValues("error").Inc()
		return report, err
	}
	s.rebuilds.WithLabelValues("ok").Inc()
	return report, nil
}

// Start serves until ctx is done, then shuts down gracefully. When watch is
// set, content changes trigger Rebuild.
func (s *Server) Start(ctx context.Context, watch bool) error {
	errCh := make(chan error, 2)

	go func() {
		s.log.Info("preview server listening", zap.String("addr", s.Config.Server.Addr))
		if err := s.Echo.Start(s.Config.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if watch {
		dirs := []string{s.Config.Content.PostsDir, s.Config.Content.NotesDir}
		go func() {
			err := Watch(ctx, dirs, s.Config.Server.DebounceDelay, s.log, func() {
				report, err := s.Rebuild(ctx)
				if err != nil {
					s.log.Error("rebuild failed", zap.Error(err))
					return
				}
				s.log.Info("rebuilt", zap.Int("posts", report.Posts), zap.Int("notes", report.Notes), zap.Duration("took", report.Duration))
			})
			if err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Echo.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
