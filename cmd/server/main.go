package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "brokerdesk/internal/jwt_token"
	"brokerdesk/internal/lookup"
	lookupmetrics "brokerdesk/internal/lookup/metrics"
	lookupstore "brokerdesk/internal/lookup/store"
	"brokerdesk/internal/notification"
	"brokerdesk/internal/platform/config"
	"brokerdesk/internal/platform/httpserver"
	"brokerdesk/internal/platform/kafka"
	"brokerdesk/internal/platform/logger"
	"brokerdesk/internal/platform/metrics"
	"brokerdesk/internal/platform/postgres"
	"brokerdesk/internal/platform/redis"
	"brokerdesk/internal/quote/events"
	"brokerdesk/internal/quote/handler"
	quotemetrics "brokerdesk/internal/quote/metrics"
	"brokerdesk/internal/quote/models"
	"brokerdesk/internal/quote/notifier"
	"brokerdesk/internal/quote/ports"
	"brokerdesk/internal/quote/service"
	"brokerdesk/internal/quote/store"
	"brokerdesk/internal/sms"
	"brokerdesk/pkg/platform/audit"
	"brokerdesk/pkg/platform/audit/publisher"
	auditmemory "brokerdesk/pkg/platform/audit/store/memory"
	auditpostgres "brokerdesk/pkg/platform/audit/store/postgres"
	"brokerdesk/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Server.IsProduction() && cfg.UsesDevSigningKey() {
		log.Error("JWT_SIGNING_KEY must be set in production")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize infrastructure", "error", err)
		os.Exit(1)
	}
	defer deps.close(context.Background())

	appMetrics := metrics.New()
	bus := events.NewBus(events.WithLogger(log))
	bus.Subscribe("sms", notifier.NewSMS(buildSMSSender(cfg, log),
		notifier.WithLogger(log),
		notifier.WithMetrics(appMetrics),
		notifier.WithDocumentStatus(models.Status(cfg.Notifications.DocumentStatus)),
	))
	if deps.producer != nil {
		bus.Subscribe("kafka", events.NewForwarder(deps.producer, cfg.Kafka.StatusTopic, appMetrics))
	}
	defer bus.Close()

	auditor := publisher.NewPublisher(deps.auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
		publisher.WithSampler(publisher.NewSampler(cfg.Audit.OperationsSampleRate)),
	)
	defer auditor.Close()

	catalog := buildCatalog(cfg, deps, log)

	svc, err := service.New(deps.gateway,
		service.WithLogger(log),
		service.WithMetrics(quotemetrics.New()),
		service.WithAuditor(auditor),
		service.WithEvents(bus),
		service.WithLookups(catalog,
			lookup.WithLogger(log),
			lookup.WithMetrics(lookupmetrics.New()),
			lookup.WithDebounce(cfg.Lookup.Debounce),
			lookup.WithPostalMinLength(cfg.Lookup.PostalMinLength),
			lookup.WithMakeMinLength(cfg.Lookup.MakeMinLength),
		),
		service.WithNotificationOptions(notification.WithDismissAfter(cfg.Notifications.AutoDismiss)),
	)
	if err != nil {
		log.Error("failed to build quote service", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	quoteHandler := handler.New(svc, catalog, jwttoken.NewJWTServiceAdapter(jwtService), log,
		handler.WithAuthFailureRecorder(auditor),
		handler.WithAuditLog(auditor, cfg.Server.AdminToken),
		handler.WithTimeout(cfg.Server.RequestTimeout),
		handler.WithMinLengths(cfg.Lookup.PostalMinLength, cfg.Lookup.MakeMinLength),
	)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", deps.health)
	quoteHandler.Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)
	go func() {
		log.Info("starting brokerdesk", "addr", cfg.Server.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

type infra struct {
	pg         *postgres.Postgres
	redis      *redis.Client
	producer   *kafka.Producer
	gateway    ports.QuoteGateway
	auditStore audit.Store
	catalog    lookup.Catalog
}

// buildInfra connects the optional backends. Anything left unconfigured
// falls back to its in-memory implementation.
func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}

	if cfg.Postgres.URL != "" {
		pg, err := postgres.NewConnection(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		in.pg = pg
		in.gateway = store.NewPostgresGateway(pg.Pool, cfg.Server.RequestTimeout)
		in.catalog = lookupstore.NewPostgresCatalog(pg.DB)
		auditStore := auditpostgres.New(pg.DB)
		if err := auditStore.Migrate(ctx); err != nil {
			in.close(ctx)
			return nil, err
		}
		in.auditStore = auditStore
		log.Info("using postgres stores")
	} else {
		memCatalog, err := lookupstore.NewMemoryCatalog()
		if err != nil {
			return nil, err
		}
		in.gateway = store.NewMemoryGateway()
		in.catalog = memCatalog
		in.auditStore = auditmemory.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.close(ctx)
		return nil, err
	}
	in.redis = rc

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers}, kafka.WithLogger(log))
		if err != nil {
			in.close(ctx)
			return nil, err
		}
		if err := producer.EnsureTopic(ctx, cfg.Kafka.StatusTopic, 3, 1); err != nil {
			log.Warn("kafka topic not ensured", "topic", cfg.Kafka.StatusTopic, "error", err)
		}
		in.producer = producer
	}
	return in, nil
}

func (in *infra) health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var errs []error
	if in.pg != nil {
		errs = append(errs, in.pg.Pool.Ping(ctx))
	}
	if in.redis != nil {
		errs = append(errs, in.redis.Health(ctx))
	}
	if in.producer != nil {
		errs = append(errs, in.producer.Ping(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (in *infra) close(ctx context.Context) {
	if in.producer != nil {
		in.producer.Close(ctx)
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.pg != nil {
		in.pg.Close()
	}
}

// buildCatalog puts the reference catalog behind a circuit breaker and a
// read-through cache (Redis when configured).
func buildCatalog(cfg config.Config, in *infra, log *slog.Logger) lookup.Catalog {
	guarded := lookup.NewGuardedCatalog(in.catalog, circuit.New("reference-catalog"), log)
	var cache lookup.Cache = lookupstore.NewMemoryCache()
	if in.redis != nil {
		cache = lookupstore.NewRedisCache(in.redis.Client)
	}
	return lookup.NewCachedCatalog(guarded, cache, cfg.Lookup.CacheTTL, log)
}

func buildSMSSender(cfg config.Config, log *slog.Logger) sms.Sender {
	if cfg.SMS.BaseURL == "" {
		return sms.NewLogSender(log)
	}
	return sms.NewClient(sms.Config{
		BaseURL: cfg.SMS.BaseURL,
		APIKey:  cfg.SMS.APIKey,
		Sender:  cfg.SMS.Sender,
		Timeout: cfg.SMS.Timeout,
	}, sms.WithLogger(log))
}
