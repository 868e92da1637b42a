package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"jadwalku_backend/internals/bootstrap"
	"jadwalku_backend/internals/configs"
	database "jadwalku_backend/internals/databases"
	scheduleCtrl "jadwalku_backend/internals/features/school/class_schedules/controller"
	"jadwalku_backend/internals/features/school/class_schedules/dto"
	"jadwalku_backend/internals/features/school/class_schedules/notifier"
	"jadwalku_backend/internals/features/school/class_schedules/scheduler"
	"jadwalku_backend/internals/features/school/class_schedules/service"
	helper "jadwalku_backend/internals/helpers"
	middlewares "jadwalku_backend/internals/middlewares"
	authMiddleware "jadwalku_backend/internals/middlewares/auth"
	routes "jadwalku_backend/internals/route"
)

func main() {
	configs.LoadEnv()
	logger := configs.NewLogger()
	slog.SetDefault(logger)

	cfg, err := configs.LoadSchedulingConfig()
	if err != nil {
		log.Fatalf("❌ scheduling config: %v", err)
	}
	if configs.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET wajib diisi")
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.FromFiberError,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // sesuaikan dengan CIDR Cloudflare jika perlu
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching (ETag versi dari controller dipertahankan)

	// 🔎 Request-ID + timing (observability ringan)
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		// HTTP timeout guard (selaras dengan statement_timeout di DB)
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		err := c.Next()
		logger.Debug("request",
			slog.String("id", id),
			slog.String("method", c.Method()),
			slog.String("url", c.OriginalURL()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("dur", time.Since(start)),
		)
		return err
	})

	middlewares.SetupMiddlewares(app, cfg.Timezone)

	// 🔌 Store: postgres (DB + pool + warm-up) atau badger embedded
	if cfg.Store.Driver == configs.StoreDriverPostgres {
		database.ConnectDB()
		database.TunePool()
		database.WarmUpQueries()
	}
	backend, err := bootstrap.OpenBackend(cfg, database.DB, logger)
	if err != nil {
		log.Fatalf("❌ open store: %v", err)
	}

	// 📈 metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)

	svc, err := backend.NewService(cfg, logger, metrics)
	if err != nil {
		log.Fatalf("❌ schedule service: %v", err)
	}

	// 📣 integrasi pasca-commit
	rdb := database.ConnectRedis(cfg.Redis, logger)
	var broadcaster *notifier.Broadcaster
	if rdb != nil {
		broadcaster = notifier.NewBroadcaster(notifier.NewRedisPublisher(rdb), logger)
	}
	dispatcher := notifier.NewDispatcher(notifier.Options{
		Settings:  configs.NewIntegrationSettings(configs.EnvIntegrationSource()),
		Broadcast: eventSender(broadcaster),
		Calendar:  notifier.NewCalendarSync(notifier.NewLogCalendarClient(logger), svc, logger),
		Activity:  notifier.NewActivityLogger(backend.DB, logger),
		Timeout:   cfg.DispatchTimeout,
		Logger:    logger,
	})

	// ⏱ scheduler setelah store siap
	jobs, err := scheduler.StartMaintenance(cfg, svc.TransactionLog(), backend.Badger, logger)
	if err != nil {
		log.Fatalf("❌ scheduler: %v", err)
	}

	// ✅ Routes
	routes.BaseRoutes(app, backend.Driver, backend.Ping, reg)
	routes.SetupRoutes(app, routes.Deps{
		Schedules: scheduleCtrl.New(svc, dispatcher, dto.NewValidator(), logger),
		Auth: authMiddleware.ActorJWTOpts{
			Secret:              configs.JWTSecret,
			BlacklistChecker:    authMiddleware.RedisBlacklist(rdb),
			AllowCookieFallback: true,
		},
		AdminRoles: configs.AdminRoles(),
		Log:        logger,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	// Start server non-blocking
	go func() {
		logger.Info("✅ Listening", slog.String("port", port), slog.String("store", backend.Driver))
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: stop HTTP → stop cron → tunggu event → flush audit → tutup store
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	<-jobs.Stop().Done()
	dispatcher.Wait()
	scheduler.FlushAuditOnce(ctx, svc.TransactionLog(), logger)

	if rdb != nil {
		_ = rdb.Close()
	}
	backend.Close()
}

// eventSender: hindari interface non-nil berisi *Broadcaster nil.
func eventSender(b *notifier.Broadcaster) notifier.EventSender {
	if b == nil {
		return nil
	}
	return b
}
