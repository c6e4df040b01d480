package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"voteaudit/internal/config"
	"voteaudit/internal/infra/ratelimit"
	"voteaudit/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ModeDB   = "db"
	ModeNoDB = "no-db"
)

type Server struct {
	cfg    config.Config
	r      *gin.Engine
	logger logrus.FieldLogger
	mode   string

	views    *usecase.PollViews
	keys     usecase.KeyProvider
	verifier *usecase.PollVerifier
	history  *usecase.HistoryRecorder
	metrics  http.Handler

	rateLimiter         ratelimit.Limiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

type ServerDeps struct {
	Views       *usecase.PollViews
	Keys        usecase.KeyProvider
	Verifier    *usecase.PollVerifier
	History     *usecase.HistoryRecorder
	Metrics     http.Handler
	RateLimiter ratelimit.Limiter
	Logger      logrus.FieldLogger
	Mode        string
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		r:           r,
		logger:      deps.Logger,
		mode:        deps.Mode,
		views:       deps.Views,
		keys:        deps.Keys,
		verifier:    deps.Verifier,
		history:     deps.History,
		metrics:     deps.Metrics,
		rateLimiter: deps.RateLimiter,
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.mode == "" {
		s.mode = ModeNoDB
	}
	if s.views == nil {
		s.views = usecase.NewPollViews()
	}
	s.initRateLimit()
	r.Use(s.requestLogger())
	s.routes()
	return s
}

func (s *Server) initRateLimit() {
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
	if s.rateLimitWindow <= 0 {
		s.rateLimitWindow = time.Minute
	}
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
	if s.rateLimiter == nil && s.rateLimitRequests > 0 {
		s.rateLimiter = ratelimit.NewMemory(ratelimit.MemoryConfig{MaxKeys: s.cfg.RateLimitMaxKeys})
	}
}

func (s *Server) routes() {
	s.r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.r.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := s.r.Group("/v1")
	{
		v1.GET("/polls", s.handleListPolls)
		v1.GET("/polls/:poll_id/verification", s.handleGetVerification)
		v1.GET("/polls/:poll_id/history", s.handlePollHistory)
		v1.GET("/history/verify", s.handleVerifyHistory)
		v1.POST("/verify", s.limitPerClient("verify"), s.handleVerifyPoll)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(started).String(),
		}).Debug("http request")
	}
}

func (s *Server) Handler() http.Handler {
	return s.r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.cfg.HTTPAddr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
