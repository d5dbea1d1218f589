package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/api"
	"github.com/tsucess/paeshift-backend-sub001/internal/auth"
	"github.com/tsucess/paeshift-backend-sub001/internal/cache"
	cacheredis "github.com/tsucess/paeshift-backend-sub001/internal/cache/redis"
	"github.com/tsucess/paeshift-backend-sub001/internal/config"
	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/database/schema"
	"github.com/tsucess/paeshift-backend-sub001/internal/database/schema/migrations"
	"github.com/tsucess/paeshift-backend-sub001/internal/events"
	"github.com/tsucess/paeshift-backend-sub001/internal/paystack"
	"github.com/tsucess/paeshift-backend-sub001/internal/store"
	"github.com/tsucess/paeshift-backend-sub001/internal/telemetry"
	"github.com/tsucess/paeshift-backend-sub001/internal/worker"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newDatabase(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*database.Database, error) {
	if !cfg.PostgresConfigured() {
		logger.Info("no postgres host configured, using sqlite",
			zap.String("path", cfg.SQLitePath))
	}
	db, err := database.New(context.Background(), database.Options{
		Host:           cfg.RDSHostname,
		Port:           cfg.RDSPort,
		DBName:         cfg.RDSDBName,
		Username:       cfg.RDSUsername,
		Password:       cfg.RDSPassword,
		ConnectTimeout: cfg.DBConnectTimeout,
		SQLitePath:     cfg.SQLitePath,
		MaxOpenConns:   10,
		MaxIdleConns:   5,
	}, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

type cacheOut struct {
	fx.Out

	Cache  cache.Cache
	Pinger api.CachePinger
}

func newCache(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) cacheOut {
	opts := cache.Options{
		DefaultTTL:    cfg.CacheTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}

	var out cacheOut
	if cfg.RedisAddr != "" {
		rc := cacheredis.New(opts)
		out.Cache = rc
		out.Pinger = rc
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
	} else {
		out.Cache = cache.NewMemory(opts)
		logger.Info("no redis configured, using in-memory cache")
	}

	c := out.Cache
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return out
}

func newNATSConnection(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.NATSConnTimeout),
		nats.Name("paeshift-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	}
	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func newPublisher(conn *nats.Conn, logger *zap.Logger) events.Publisher {
	return events.NewPublisherWithConn(conn, logger)
}

func newStore(db *database.Database, c cache.Cache, cfg *config.Config, logger *zap.Logger) *store.Store {
	return store.New(db, c, logger, store.Options{CacheTTL: cfg.CacheTTL})
}

func newPaystackClient(cfg *config.Config, logger *zap.Logger) paystack.Client {
	return paystack.New(paystack.Options{
		BaseURL:    cfg.PaystackBaseURL,
		SecretKey:  cfg.PaystackSecretKey,
		Timeout:    cfg.PaystackTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, logger)
}

func newGoogleClient(cfg *config.Config, logger *zap.Logger) *auth.GoogleClient {
	return auth.NewGoogleClient(auth.Options{
		ClientID:     cfg.GoogleOAuthClientID,
		ClientSecret: cfg.GoogleOAuthSecret,
		RedirectURL:  cfg.GoogleOAuthRedirectURL,
	}, logger)
}

func newServer(
	st *store.Store,
	db *database.Database,
	pub events.Publisher,
	ps paystack.Client,
	google *auth.GoogleClient,
	pinger api.CachePinger,
	cfg *config.Config,
	logger *zap.Logger,
) *api.Server {
	return api.NewServer(st, db, pub, ps, google, pinger, logger, api.Options{
		AllowedHosts: cfg.AllowedHosts,
	})
}

func newReconciler(st *store.Store, ps paystack.Client, pub events.Publisher, cfg *config.Config, logger *zap.Logger) *worker.Reconciler {
	return worker.NewReconciler(st, ps, pub, logger, worker.Options{
		Interval: cfg.ReconcileInterval,
		Grace:    cfg.ReconcileGrace,
	})
}

func runMigrations(db *database.Database, logger *zap.Logger) error {
	migrator := schema.NewMigrator(db, logger)
	return migrator.ApplyAll(context.Background(), migrations.All())
}

func startHTTPServer(lc fx.Lifecycle, srv *api.Server, cfg *config.Config, logger *zap.Logger) {
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
	})
}

func startReconciler(lc fx.Lifecycle, r *worker.Reconciler, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := r.Start(ctx); err != nil && err != context.Canceled {
					logger.Error("payment reconciler stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			r.Stop()
			return nil
		},
	})
}

func startTracing(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	var shutdown func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := telemetry.InitTracer(ctx, "paeshift-api", cfg.OTELCollectorURL, logger)
			if err != nil {
				// tracing is best-effort; the service runs without it
				logger.Warn("failed to initialize tracing", zap.Error(err))
				return nil
			}
			shutdown = fn
			return nil
		},
		OnStop: func(context.Context) error {
			if shutdown != nil {
				shutdown()
			}
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newDatabase,
			newCache,
			newNATSConnection,
			newPublisher,
			newStore,
			newPaystackClient,
			newGoogleClient,
			newServer,
			newReconciler,
			events.NewHandler,
		),
		fx.Invoke(
			startTracing,
			runMigrations,
			func(handler *events.Handler, lc fx.Lifecycle) error {
				return handler.RegisterSubscriptions(lc)
			},
			startHTTPServer,
			startReconciler,
		),
	)

	startCtx := context.Background()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx := context.Background()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
