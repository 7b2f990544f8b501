package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-operations/internal/config"
	"github.com/iliyamo/hotel-operations/internal/database"
	"github.com/iliyamo/hotel-operations/internal/handler"
	"github.com/iliyamo/hotel-operations/internal/logging"
	"github.com/iliyamo/hotel-operations/internal/queue"
	"github.com/iliyamo/hotel-operations/internal/repository"
	"github.com/iliyamo/hotel-operations/internal/router"
	"github.com/iliyamo/hotel-operations/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("migrate database")
		}
	}

	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		log.WithError(err).Fatal("load cache config")
	}
	rateCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		log.WithError(err).Fatal("load rate limit config")
	}
	redisCfg, err := config.LoadRedisConfig()
	if err != nil {
		log.WithError(err).Fatal("load redis config")
	}
	rdb := config.NewRedisClient(redisCfg) // nil when unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.EventPublisher = queue.Discard{}
	if pub, err := queue.NewPublisher(cfg.RabbitURL, cfg.EventsExchange); err != nil {
		log.WithError(err).Warn("rabbitmq unavailable, domain events are dropped")
	} else {
		defer pub.Close()
		events = pub
	}

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// services
	effects := service.NewDispatcher(10 * time.Second)
	notifications := service.NewNotifications(repository.NewNotificationRepo(db), events)
	maintenance := service.NewMaintenance(repository.NewMaintenanceRepo(db), roomRepo, notifications, events, effects)
	housekeeping := service.NewHousekeeping(service.HousekeepingDeps{
		Tasks:    repository.NewHousekeepingRepo(db),
		Rooms:    roomRepo,
		Issues:   maintenance,
		Notifier: notifications,
		Events:   events,
		Effects:  effects,
	})
	settings := service.NewSettings(repository.NewSettingRepo(db), rdb, cfg.SettingsCacheTTL)
	rates := service.WithTaxDefault(settings, cfg.DefaultTaxRate)
	ledger := service.NewLedger(service.LedgerDeps{
		Rooms:    roomRepo,
		Bookings: bookingRepo,
		Rates:    rates,
		Notifier: notifications,
		Tasks:    housekeeping,
		Events:   events,
		Effects:  effects,
	})
	rooms := service.NewRooms(roomRepo, events, effects)
	invoices := service.NewInvoices(repository.NewInvoiceRepo(db), ledger, roomRepo)

	if cfg.AuditConsumer {
		audit := queue.AuditConsumer{
			URL:      cfg.RabbitURL,
			Exchange: cfg.EventsExchange,
			Queue:    "hotel.audit",
			LogPath:  cfg.AuditLogPath,
		}
		go func() {
			if err := audit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("audit consumer stopped")
			}
		}()
	}

	var sweep gocron.Scheduler
	if cfg.NoShowSweep {
		if sweep, err = service.StartNoShowSweep(ledger, cfg.NoShowSweepInterval, cfg.NoShowGrace); err != nil {
			log.WithError(err).Fatal("start no-show sweep")
		}
	}

	timeout := cfg.RequestTimeout
	e := router.New(router.Handlers{
		Health:        handler.Health{DB: db, Redis: rdb},
		Auth:          handler.NewAuthHandler(cfg, users, tokens),
		Rooms:         handler.NewRoomHandler(rooms, timeout),
		Bookings:      handler.NewBookingHandler(ledger, invoices, timeout),
		Housekeeping:  handler.NewHousekeepingHandler(housekeeping, timeout),
		Maintenance:   handler.NewMaintenanceHandler(maintenance, timeout),
		Settings:      handler.NewSettingsHandler(settings, timeout),
		Notifications: handler.NewNotificationHandler(notifications, timeout),
		Users:         handler.NewUserHandler(cfg, users, tokens),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     cacheCfg,
		RateLimit: rateCfg,
		Redis:     rdb,
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(log.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if sweep != nil {
		if err := sweep.Shutdown(); err != nil {
			log.WithError(err).Warn("scheduler shutdown")
		}
	}
	effects.Wait()
}
