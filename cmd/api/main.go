package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/barsan/reservation-service/internal/api/http"
	"github.com/barsan/reservation-service/internal/api/http/handlers"
	"github.com/barsan/reservation-service/internal/auth"
	"github.com/barsan/reservation-service/internal/config"
	"github.com/barsan/reservation-service/internal/events"
	"github.com/barsan/reservation-service/internal/observability"
	"github.com/barsan/reservation-service/internal/persistence"
	"github.com/barsan/reservation-service/internal/repository"
	"github.com/barsan/reservation-service/internal/service"
	"github.com/barsan/reservation-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	guestRepo := repository.NewGuestRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	cafeRepo := repository.NewCafeRepository(pool)
	tableRepo := repository.NewTableRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		GuestRepo:    guestRepo,
		StaffRepo:    staffRepo,
		SessionStore: auth.NewRedisSessionStore(redis.Client),
	})
	cafeService := service.NewCafeService(cafeRepo, tableRepo)
	bookingService := service.NewBookingService(cfg.Booking, service.BookingDependencies{
		CafeRepo:        cafeRepo,
		TableRepo:       tableRepo,
		ReservationRepo: reservationRepo,
		GuestRepo:       guestRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Metrics:         metrics,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartCompletionSweeper(ctx, bookingService, cfg.Booking.SweepInterval(), logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), authService.SessionManager(), guestRepo, staffRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Cafes:          handlers.NewCafesHandler(cafeService),
		Reservations:   handlers.NewReservationsHandler(bookingService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
