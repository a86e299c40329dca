package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/config"
	"github.com/example/room-reservation/internal/events"
	httptransport "github.com/example/room-reservation/internal/http"
	"github.com/example/room-reservation/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	location, err := cfg.Location()
	if err != nil {
		logger.Error("failed to resolve time zone", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	roomRepo := newRoomRepositoryAdapter(sqlite.NewRoomRepository(pool))
	reservationRepo := newReservationRepositoryAdapter(sqlite.NewReservationRepository(pool))
	userRepo := newUserRepositoryAdapter(sqlite.NewUserRepository(pool))
	sessionRepo := newSessionRepositoryAdapter(sqlite.NewSessionRepository(pool), now)

	var sink application.EventSink
	if cfg.AMQPURL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Error("failed to connect to event broker", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				logger.Error("failed to close event broker connection", "error", cerr)
			}
		}()
		sink = publisher
	} else {
		sink = events.NewLogSink(logger)
	}

	reservationService := application.NewReservationServiceWithLogger(reservationRepo, roomRepo, sink, idGenerator, now, location, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, sink, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, idGenerator, now, cfg.SessionTTL, logger)

	if err := authService.EnsureSeedAdmin(context.Background(), cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		logger.Error("failed to seed administrator account", "error", err)
		os.Exit(1)
	}

	go purgeSessionsLoop(ctx, authService, logger)

	authHandler := httptransport.NewAuthHandler(authService, logger)
	roomHandler := httptransport.NewRoomHandler(roomService, reservationService.Availability(), logger)
	reservationHandler := httptransport.NewReservationHandler(reservationService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         authHandler,
		Rooms:        roomHandler,
		Reservations: reservationHandler,
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Session creation is the only endpoint reachable without a token.
		if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// purgeSessionsLoop deletes expired sessions hourly until the context ends.
func purgeSessionsLoop(ctx context.Context, auth *application.AuthService, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := auth.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Error("failed to purge expired sessions", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("purged expired sessions", "count", deleted)
			}
		}
	}
}
