package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"voteaudit/internal/config"
	cryptoinfra "voteaudit/internal/infra/crypto"
	"voteaudit/internal/infra/db"
	"voteaudit/internal/infra/historymem"
	httpinfra "voteaudit/internal/infra/http"
	"voteaudit/internal/infra/logging"
	"voteaudit/internal/infra/metrics"
	"voteaudit/internal/infra/orgkey"
	"voteaudit/internal/infra/policyopa"
	"voteaudit/internal/infra/pollsource"
	"voteaudit/internal/infra/ratelimit"
	"voteaudit/internal/infra/state"
	"voteaudit/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("voteauditd exited")
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	store, err := db.NewStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	mode := httpinfra.ModeNoDB
	var historyRepo usecase.HistoryRepository = historymem.New()
	if store.Enabled() {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		mode = httpinfra.ModeDB
		historyRepo = db.NewHistoryRepository(store.DB)
	}

	var stateStore usecase.StateStore = state.NewMemory()
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		redisState := state.NewRedisWithClient(client, cfg.StateKeyPrefix)
		if err := redisState.Ping(ctx); err != nil {
			return err
		}
		stateStore = redisState
		if cfg.RateLimitRequests > 0 {
			limiter, err = ratelimit.NewRedis(client, cfg.StateKeyPrefix, nil)
			if err != nil {
				return err
			}
		}
		logger.WithField("key", redisState.Key()).Info("scheduler state kept in redis")
	}

	var policy usecase.PolicyEngine
	if cfg.PolicyBundlePath != "" {
		engine, err := policyopa.NewEngineFromBundlePath(ctx, cfg.PolicyBundlePath)
		if err != nil {
			return err
		}
		policy = engine
		logger.WithField("bundle_hash", engine.BundleHash()).Info("acceptance policy loaded")
	}

	keys := orgkey.New()
	if cfg.OrgPublicKeyBase64 != "" {
		if err := keys.SetBase64(cfg.OrgPublicKeyBase64); err != nil {
			return err
		}
	}

	m := metrics.New()
	views := usecase.NewPollViews()
	history := usecase.NewHistoryRecorder(historyRepo, nil)
	verifier := &usecase.PollVerifier{
		Keys:        keys,
		Crypto:      cryptoinfra.NewService(),
		State:       stateStore,
		Views:       views,
		History:     history,
		Policy:      policy,
		Metrics:     m,
		Logger:      logger,
		PassTimeout: cfg.PassTimeout(),
	}
	server := httpinfra.NewServer(cfg, httpinfra.ServerDeps{
		Views:       views,
		Keys:        keys,
		Verifier:    verifier,
		History:     history,
		Metrics:     m.Handler(),
		RateLimiter: limiter,
		Logger:      logger,
		Mode:        mode,
	})

	feed := usecase.NewSnapshotFeed()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return verifier.Run(gctx, feed.C()) })
	g.Go(func() error { return server.Run(gctx) })
	if cfg.BackendURL != "" {
		client := pollsource.NewClient(cfg.BackendURL,
			pollsource.WithToken(cfg.BackendToken),
			pollsource.WithTimeout(cfg.BackendTimeout()),
		)
		poller := &pollsource.Poller{
			Client:   client,
			Keys:     keys,
			Feed:     feed,
			Interval: cfg.PollInterval(),
			Logger:   logger.WithField("source", "poll"),
			Metrics:  m,
		}
		g.Go(func() error { return poller.Run(gctx) })
	}
	if cfg.BackendWSURL != "" {
		stream := &pollsource.Stream{
			URL:     cfg.BackendWSURL,
			Token:   cfg.BackendToken,
			Keys:    keys,
			Feed:    feed,
			Logger:  logger.WithField("source", "stream"),
			Metrics: m,
		}
		g.Go(func() error { return stream.Run(gctx) })
	}
	if cfg.BackendURL == "" && cfg.BackendWSURL == "" {
		logger.Warn("neither BACKEND_URL nor BACKEND_WS_URL set; only POST /v1/verify is useful")
	}

	logger.WithField("mode", mode).Info("voteauditd started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
