package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	natsclient "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/0xsj/overwatch-pkg/health"
	"github.com/0xsj/overwatch-pkg/log"
	"github.com/0xsj/overwatch-pkg/metrics"

	grpcadapter "github.com/0xsj/overwatch-payments/internal/adapter/inbound/grpc"
	httpadapter "github.com/0xsj/overwatch-payments/internal/adapter/inbound/http"
	boltstore "github.com/0xsj/overwatch-payments/internal/adapter/outbound/bbolt"
	"github.com/0xsj/overwatch-payments/internal/adapter/outbound/httpclient"
	"github.com/0xsj/overwatch-payments/internal/adapter/outbound/memory"
	natsadapter "github.com/0xsj/overwatch-payments/internal/adapter/outbound/nats"
	"github.com/0xsj/overwatch-payments/internal/adapter/outbound/postgres"
	rediscache "github.com/0xsj/overwatch-payments/internal/adapter/outbound/redis"
	"github.com/0xsj/overwatch-payments/internal/app/command"
	"github.com/0xsj/overwatch-payments/internal/app/orchestrator"
	"github.com/0xsj/overwatch-payments/internal/app/query"
	"github.com/0xsj/overwatch-payments/internal/app/service"
	"github.com/0xsj/overwatch-payments/internal/config"
	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/cache"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/messaging"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/repository"
)

const purgeInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stores is the session persistence selected by the storage driver.
type stores struct {
	sessions    repository.SessionStore
	instruments repository.InstrumentSessionStore
	cache       cache.SessionCache
	checks      []health.Checker
	closers     []io.Closer
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := log.NewPretty(log.DefaultConfig())

	logger.Info("starting payments challenge service",
		log.String("version", "1.0.0"),
		log.String("address", cfg.Server.Address()),
		log.String("handler_version", cfg.Challenge.HandlerVersion),
		log.String("storage_driver", cfg.Storage.Driver),
	)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	// Redis fronts whichever durable store was selected.
	if cfg.Redis.Enabled {
		redisClient, err := connectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()

		st.cache = rediscache.NewSessionCache(redisClient, cfg.Challenge.CacheTTL)
		st.instruments = rediscache.NewInstrumentSessionStore(redisClient, cfg.Storage.TTL)
		st.checks = append(st.checks, health.RedisClient("redis", redisClient))
	}

	var publisher messaging.EventPublisher
	if cfg.NATS.Enabled {
		identity, err := service.NewServiceIdentity(cfg.ServiceIdentity)
		if err != nil {
			return fmt.Errorf("failed to initialize service identity: %w", err)
		}
		logger.Info("service identity initialized",
			log.String("service_id", cfg.ServiceIdentity.ID),
			log.String("service_name", identity.ServiceName()),
			log.String("did", identity.DID()),
		)

		natsConn, err := connectNATS(cfg.NATS, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer natsConn.Close()

		publisher = natsadapter.NewEventPublisher(natsConn, identity, cfg.NATS.SubjectPrefix)
		st.checks = append(st.checks, health.Custom("nats", func(context.Context) error {
			if !natsConn.IsConnected() {
				return fmt.Errorf("nats status %s", natsConn.Status())
			}
			return nil
		}))
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	meter := metrics.NewPrometheusWithRegistry(
		metrics.DefaultConfig().
			WithNamespace("overwatch").
			WithSubsystem("payments").
			WithEnabled(cfg.Server.EnableMetrics),
		registry,
	)

	// Downstream services
	instruments := httpclient.NewInstrumentService(httpclient.Endpoint{
		BaseURL:     cfg.Services.InstrumentBaseURL,
		Timeout:     cfg.Services.InstrumentTimeout,
		BearerToken: cfg.Services.BearerToken,
	}, logger)
	authentication := httpclient.NewAuthenticationService(httpclient.Endpoint{
		BaseURL:     cfg.Services.AuthenticationBaseURL,
		Timeout:     cfg.Services.AuthenticationTimeout,
		BearerToken: cfg.Services.BearerToken,
	}, logger)
	attestation := httpclient.NewAttestationService(httpclient.Endpoint{
		BaseURL:     cfg.Services.AttestationBaseURL,
		Timeout:     cfg.Services.AttestationTimeout,
		BearerToken: cfg.Services.BearerToken,
	}, logger)

	signer, err := service.NewHMACSessionSigner([]byte(cfg.Signing.Secret))
	if err != nil {
		return fmt.Errorf("failed to create session signer: %w", err)
	}

	router, err := orchestrator.NewRouter(model.HandlerVersion(cfg.Challenge.HandlerVersion), orchestrator.Dependencies{
		Sessions:           st.sessions,
		InstrumentSessions: st.instruments,
		Cache:              st.cache,
		Instruments:        instruments,
		Authentication:     authentication,
		Attestation:        attestation,
		Publisher:          publisher,
		Signer:             signer,
		SafetyNet:          service.NewSafetyNet(logger, meter),
		Certificates:       service.NewCertificateValidator(cfg.Challenge.TrustRootDir, logger),
		Localizer:          service.NewLocalizer(),
		Logger:             logger,
		Config: orchestrator.Config{
			NotificationBaseURL: cfg.Challenge.NotificationBaseURL,
			CacheTTL:            cfg.Challenge.CacheTTL,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	// Command and query handlers, each wrapped with logging
	getPaymentSession := query.WithLogging(query.NewGetPaymentSessionHandler(router), logger)
	getChallengeRedirect := query.WithLogging(query.NewGetChallengeRedirectHandler(router), logger)
	handler := httpadapter.NewHandler(httpadapter.HandlerConfig{
		CreatePaymentSessionHandler:        command.WithLogging(command.NewCreatePaymentSessionHandler(router, cfg.Challenge.DefaultFlags, cfg.Challenge.PartnerSettingsVersion), logger),
		HandlePaymentChallengeHandler:      command.WithLogging(command.NewHandlePaymentChallengeHandler(router, signer), logger),
		GetThreeDSMethodURLHandler:         command.WithLogging(command.NewGetThreeDSMethodURLHandler(router, signer), logger),
		AuthenticateBrowserHandler:         command.WithLogging(command.NewAuthenticateBrowserHandler(router), logger),
		AuthenticateAppHandler:             command.WithLogging(command.NewAuthenticateAppHandler(router), logger),
		AuthenticateThreeDSOneHandler:      command.WithLogging(command.NewAuthenticateThreeDSOneHandler(router), logger),
		CompleteChallengeHandler:           command.WithLogging(command.NewCompleteChallengeHandler(router), logger),
		CompleteThreeDSOneChallengeHandler: command.WithLogging(command.NewCompleteThreeDSOneChallengeHandler(router), logger),
		GetPaymentSessionHandler:           getPaymentSession,
		GetChallengeRedirectHandler:        getChallengeRedirect,
		MaxBodyBytes:                       cfg.Server.MaxBodyBytes,
		Logger:                             logger,
	})

	auth, err := httpadapter.NewAuthenticator(httpadapter.AuthConfig{
		Enabled:  cfg.Auth.Enabled,
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   30 * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	healthHandler := health.NewHandler(health.DefaultConfig().
		WithService("payments").
		WithVersion("1.0.0").
		WithReadinessChecks(st.checks...))

	routerCfg := httpadapter.RouterConfig{
		Auth:         auth,
		RoundTimeout: cfg.Server.RoundTimeout,
		Health:       healthHandler,
		Logger:       logger,
	}
	if cfg.Server.EnableMetrics {
		routerCfg.Meter = meter
		routerCfg.MetricsHandler = metrics.HandlerFor(registry)
	}

	server, err := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		WriteTimeout:    cfg.Server.RoundTimeout + 5*time.Second,
	}, httpadapter.NewRouter(handler, routerCfg), logger)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	var grpcServer *grpcadapter.Server
	if cfg.GRPC.Enabled {
		var parser grpcadapter.TokenParser
		if cfg.Auth.Enabled {
			parser = func(token string) (string, string, error) {
				caller, err := auth.Parse(token)
				return caller.Name, caller.AccountID, err
			}
		}
		grpcServer, err = grpcadapter.NewServer(grpcadapter.ServerConfig{
			Host:              cfg.GRPC.Host,
			Port:              cfg.GRPC.Port,
			EnableReflection:  cfg.GRPC.EnableReflection,
			EnableHealthCheck: true,
		}, grpcadapter.NewSessionService(grpcadapter.SessionServiceConfig{
			GetPaymentSessionHandler:    getPaymentSession,
			GetChallengeRedirectHandler: getChallengeRedirect,
			Logger:                      logger,
		}), parser, logger)
		if err != nil {
			return fmt.Errorf("failed to create grpc server: %w", err)
		}
	}

	errChan := make(chan error, 2)
	go func() {
		errChan <- server.Start(ctx)
	}()
	if grpcServer != nil {
		go func() {
			errChan <- grpcServer.Start(ctx)
		}()
	}
	healthHandler.SetStarted(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("payments challenge service started", log.String("address", cfg.Server.Address()))

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logger.Info("received shutdown signal", log.String("signal", sig.String()))
		healthHandler.SetStarted(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if grpcServer != nil {
			if err := grpcServer.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop grpc server: %w", err)
			}
		}
		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		cancel()

		logger.Info("payments challenge service stopped gracefully")
		return nil
	}
}

// openStores opens the durable session store named by the storage driver.
func openStores(ctx context.Context, cfg *config.Config, logger log.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		pool, err := connectPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := postgres.New(pool).EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		return &stores{
			sessions:    postgres.NewSessionStore(pool, cfg.Storage.TTL),
			instruments: postgres.NewInstrumentSessionStore(pool),
			checks:      []health.Checker{health.Postgres("postgres", pool, health.Critical())},
			closers:     []io.Closer{closerFunc(pool.Close)},
		}, nil

	case config.StorageDriverBolt:
		db, err := boltstore.Open(cfg.Storage.BoltPath, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open bbolt store: %w", err)
		}
		sessions := boltstore.NewSessionStore(db, cfg.Storage.TTL)
		go purgeExpired(ctx, sessions, logger)

		logger.Info("opened bbolt store", log.String("path", cfg.Storage.BoltPath))
		return &stores{
			sessions:    sessions,
			instruments: boltstore.NewInstrumentSessionStore(db),
			closers:     []io.Closer{db},
		}, nil

	case config.StorageDriverMemory:
		mem := memory.New(cfg.Storage.TTL)
		logger.Warn("using in-memory session store; sessions do not survive a restart")
		return &stores{
			sessions:    mem.Sessions(),
			instruments: mem.Instruments(),
			cache:       mem.Cache(),
			closers:     []io.Closer{mem},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func purgeExpired(ctx context.Context, sessions *boltstore.SessionStore, logger log.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge expired sessions", log.Err(err))
				continue
			}
			if n > 0 {
				logger.Debug("purged expired sessions", log.Int("count", n))
			}
		}
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig, logger log.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to postgres",
		log.String("host", cfg.Host),
		log.String("database", cfg.Database),
	)

	return pool, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, logger log.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to redis",
		log.String("address", cfg.Address()),
	)

	return client, nil
}

func connectNATS(cfg config.NATSConfig, logger log.Logger) (*natsclient.Conn, error) {
	opts := []natsclient.Option{
		natsclient.Name("overwatch-payments"),
		natsclient.MaxReconnects(cfg.MaxReconnects),
		natsclient.ReconnectWait(cfg.ReconnectWait),
		natsclient.DisconnectErrHandler(func(nc *natsclient.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", log.String("error", err.Error()))
			}
		}),
		natsclient.ReconnectHandler(func(nc *natsclient.Conn) {
			logger.Info("nats reconnected", log.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := natsclient.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	logger.Info("connected to nats",
		log.String("url", conn.ConnectedUrl()),
	)

	return conn, nil
}
