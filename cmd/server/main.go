package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	billinghandler "domus/internal/billing/handler"
	billingmetrics "domus/internal/billing/metrics"
	billingservice "domus/internal/billing/service"
	billingstore "domus/internal/billing/store"
	"domus/internal/engine"
	enginemetrics "domus/internal/engine/metrics"
	"domus/internal/identity"
	"domus/internal/identity/jwtauth"
	"domus/internal/ledger"
	ledgerhandler "domus/internal/ledger/handler"
	"domus/internal/notify"
	notifyhandler "domus/internal/notify/handler"
	"domus/internal/platform/config"
	"domus/internal/platform/httpserver"
	"domus/internal/platform/logger"
	"domus/internal/platform/middleware"
	"domus/internal/platform/postgres"
	platformredis "domus/internal/platform/redis"
	propertyhandler "domus/internal/property/handler"
	propertymetrics "domus/internal/property/metrics"
	propertyservice "domus/internal/property/service"
	propertystore "domus/internal/property/store"
	tenancyhandler "domus/internal/tenancy/handler"
	tenancymetrics "domus/internal/tenancy/metrics"
	tenancyservice "domus/internal/tenancy/service"
	tenancystore "domus/internal/tenancy/store"
)

// main wires stores, services and the orchestrator, then runs the HTTP server
// and the notification dispatcher until a shutdown signal arrives. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Store selection: Postgres when a DSN is configured, in-memory otherwise.
	// The occupancy counter additionally moves to Redis when a URL is set.
	var (
		userStore    identity.Store
		requestStore tenancyservice.RequestStore
		stayStore    interface {
			tenancyservice.StayStore
			billingservice.StayFinder
		}
		billStore   billingservice.Store
		ledgerStore ledger.Store
		notifyStore notify.Store
		propStore   propertyservice.Store
	)
	if db != nil {
		userStore = identity.NewPostgres(db)
		requestStore = tenancystore.NewPostgresRequests(db)
		stayStore = tenancystore.NewPostgresStays(db)
		billStore = billingstore.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgres(db)
		notifyStore = notify.NewPostgres(db)
		propStore = propertystore.NewPostgres(db)
	} else {
		userStore = identity.NewInMemoryStore()
		requestStore = tenancystore.NewInMemoryRequestStore()
		stayStore = tenancystore.NewInMemoryStayStore()
		billStore = billingstore.NewInMemoryStore()
		ledgerStore = ledger.NewInMemoryStore()
		notifyStore = notify.NewInMemoryStore()
		propStore = propertystore.NewInMemory()
	}
	if redisClient != nil {
		propStore = propertystore.NewRedisCounter(propStore, redisClient.Client)
	}

	propertySvc := propertyservice.New(propStore,
		propertyservice.WithLogger(log),
		propertyservice.WithMetrics(propertymetrics.New()),
	)
	registry := tenancyservice.New(requestStore, stayStore, propertySvc, userStore,
		tenancyservice.WithLogger(log),
		tenancyservice.WithMetrics(tenancymetrics.New()),
	)
	billingSvc := billingservice.New(billStore, stayStore,
		billingservice.WithLogger(log),
		billingservice.WithMetrics(billingmetrics.New()),
	)
	history := ledger.NewPublisher(ledgerStore)
	notifySvc := notify.New(notifyStore, notify.WithLogger(log))
	dispatcher := notify.NewDispatcher(notifySvc, cfg.NotifyBuffer, log)

	eng := engine.New(registry, propertySvc, billingSvc, history, dispatcher,
		engine.WithLogger(log),
		engine.WithMetrics(enginemetrics.New()),
	)

	validator := jwtauth.New(cfg.JWTSigningKey)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthz(db, redisClient))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		r.Use(middleware.ContentTypeJSON)

		tenancyhandler.New(eng, log).Register(r)
		billinghandler.New(eng, log).Register(r)
		propertyhandler.New(propertySvc, log).Register(r)
		ledgerhandler.New(eng, log).Register(r)
		notifyhandler.New(notifySvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting domus", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := dispatcher.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, `{"status":"postgres unavailable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, `{"status":"redis unavailable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
