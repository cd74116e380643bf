package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schedcheck/schedcheck/internal/config"
	"github.com/schedcheck/schedcheck/internal/engine"
	"github.com/schedcheck/schedcheck/internal/store"
)

// Server is the W4 HTTP control plane: it accepts workload submissions,
// runs the reachability engine in a background goroutine per run, and
// serves status/results/progress for each run.
//
// Grounded on pkg/api/server.go's Server, with the database manager and
// JWT service narrowed to this domain's store.Store/store.RunCache and
// TokenService, and its model/node/inference route groups replaced by a
// single run resource.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	cache  store.RunCache
	tokens *TokenService
	logger *slog.Logger

	httpServer *http.Server

	// runs indexes in-flight and recently completed runs by RunID, the way
	// pkg/scheduler's ConcurrentNodeIndex indexes nodes by id with a
	// sync.Map rather than a mutex-guarded plain map.
	runs sync.Map // map[string]*RunState

	// engines retains the completed *engine.Engine for a run so /csv and
	// /dot can be served without re-running the analysis. Entries are not
	// evicted within the process lifetime; a production deployment would
	// cap this with an LRU, left as a follow-up.
	engines sync.Map // map[string]*engine.Engine
}

// NewServer wires the control plane's dependencies. cache may be nil, in
// which case the digest-based run dedup (W-S3) and progress streaming are
// both disabled.
func NewServer(cfg *config.Config, st *store.Store, cache store.RunCache, logger *slog.Logger) (*Server, error) {
	tokens, err := NewTokenService(cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("httpapi: new token service: %w", err)
	}
	return &Server{
		cfg:    cfg,
		store:  st,
		cache:  cache,
		tokens: tokens,
		logger: logger,
	}, nil
}

// Router builds the gin engine without starting an HTTP listener, for use
// in tests via httptest and in Start below.
func (s *Server) Router() *gin.Engine {
	return s.setupRouter()
}

// Start builds the router and serves it until ctx is cancelled or an
// unrecoverable server error occurs.
func (s *Server) Start(ctx context.Context) error {
	router := s.Router()
	s.httpServer = &http.Server{
		Addr:         s.cfg.API.Listen,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting control plane", "addr", s.cfg.API.Listen, "tlsEnabled", s.cfg.API.TLSEnabled)
		var err error
		if s.cfg.API.TLSEnabled {
			err = s.httpServer.ListenAndServeTLS(s.cfg.API.CertFile, s.cfg.API.KeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop(context.Background())
	case err := <-errCh:
		return err
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping control plane")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// setupRouter builds the gin engine: global middleware, then the §6 route
// list, mirroring pkg/api/server.go's setupRouter shape.
func (s *Server) setupRouter() *gin.Engine {
	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(s.loggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(s.corsMiddleware())
	router.Use(s.securityMiddleware())
	router.Use(s.bodySizeMiddleware())

	router.GET("/healthz", s.healthHandler)

	runs := router.Group("/runs")
	runs.Use(s.authMiddleware())
	submit := []gin.HandlerFunc{s.submitRunHandler}
	if s.cfg.API.RateLimit.Enabled {
		submit = append([]gin.HandlerFunc{s.rateLimitMiddleware()}, submit...)
	}
	{
		runs.POST("", submit...)
		runs.GET("/:id", s.getRunHandler)
		runs.GET("/:id/csv", s.getRunCSVHandler)
		runs.GET("/:id/dot", s.getRunDOTHandler)
		runs.GET("/:id/progress", s.progressHandler)
	}

	return router
}

func (s *Server) setRunState(rs *RunState) { s.runs.Store(rs.RunID, rs) }

func (s *Server) getRunState(runID string) (*RunState, bool) {
	v, ok := s.runs.Load(runID)
	if !ok {
		return nil, false
	}
	return v.(*RunState), true
}

func (s *Server) setRunEngine(runID string, e *engine.Engine) { s.engines.Store(runID, e) }

func (s *Server) getRunEngine(runID string) (*engine.Engine, bool) {
	v, ok := s.engines.Load(runID)
	if !ok {
		return nil, false
	}
	return v.(*engine.Engine), true
}
