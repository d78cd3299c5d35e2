package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/TaherAlradaei/studio-sub000/internal/availability"
	"github.com/TaherAlradaei/studio-sub000/internal/booking"
	"github.com/TaherAlradaei/studio-sub000/internal/handlers"
	"github.com/TaherAlradaei/studio-sub000/internal/outbox"
	"github.com/TaherAlradaei/studio-sub000/internal/pricing"
	"github.com/TaherAlradaei/studio-sub000/internal/storage"
	"github.com/TaherAlradaei/studio-sub000/libs/config"
	"github.com/TaherAlradaei/studio-sub000/libs/db"
	"github.com/TaherAlradaei/studio-sub000/libs/httpx"
	"github.com/TaherAlradaei/studio-sub000/libs/kafkax"
	otelx "github.com/TaherAlradaei/studio-sub000/libs/otel"
	"github.com/TaherAlradaei/studio-sub000/libs/runtime"
)

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func scheduleFromEnv() availability.Schedule {
	sched := availability.DefaultSchedule()
	sched.OpenMinutes = config.Clock("PITCH_OPEN", sched.OpenMinutes)
	sched.CloseMinutes = config.Clock("PITCH_CLOSE", sched.CloseMinutes)
	sched.BreakStart = config.Clock("PITCH_BREAK_START", sched.BreakStart)
	sched.BreakEnd = config.Clock("PITCH_BREAK_END", sched.BreakEnd)
	return sched
}

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewReservationRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	coordinator := booking.NewCoordinator(repo, outboxRepo, scheduleFromEnv(), logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(coordinator, pricing.FromEnv(), logger)
	adminHandler := handlers.NewAdminHandler(bookingHandler)

	// Public endpoints are rate limited per client IP; Redis makes the window
	// shared across instances when configured.
	var publicLimit httpx.Middleware
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		publicLimit = httpx.NewRedisRateLimiter(rdb, config.Int("PUBLIC_RATE_LIMIT", 60), time.Minute, service).Middleware(logger, true)
	} else {
		publicLimit = httpx.NewRateLimiter(config.Int("PUBLIC_RATE_LIMIT", 60), time.Minute).Middleware()
	}
	adminAuth := httpx.WithAdminToken(config.String("ADMIN_TOKEN_BCRYPT", ""))
	if config.String("ADMIN_TOKEN_BCRYPT", "") == "" {
		logger.Warn("admin endpoints are unprotected (ADMIN_TOKEN_BCRYPT not set)")
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	public := func(h http.HandlerFunc) http.Handler { return publicLimit(h) }
	admin := func(h http.HandlerFunc) http.Handler { return adminAuth(h) }

	mux.Handle("/api/v1/public/slots", public(bookingHandler.Slots))
	mux.Handle("/api/v1/public/bookings", public(bookingHandler.Submit))
	mux.Handle("/api/v1/public/bookings/accept", public(bookingHandler.Accept))
	mux.Handle("/api/v1/public/bookings/decline", public(bookingHandler.Decline))
	mux.Handle("/api/v1/admin/reservations", admin(adminHandler.List))
	mux.Handle("/api/v1/admin/reservations/quote", admin(adminHandler.Quote))
	mux.Handle("/api/v1/admin/reservations/cancel", admin(adminHandler.Cancel))
	mux.Handle("/api/v1/admin/blocks", admin(adminHandler.Block))
	mux.Handle("/api/v1/admin/blocks/delete", admin(adminHandler.Unblock))

	requestTimeout := 10 * time.Second
	if v := config.Int("REQUEST_TIMEOUT_SECONDS", 10); v > 0 {
		requestTimeout = time.Duration(v) * time.Second
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id,X-Admin-Token")),
			AllowCredentials: false,
			MaxAge:           time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(requestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
