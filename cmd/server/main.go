package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"sshmate/internal/config"
	"sshmate/internal/crypto"
	"sshmate/internal/database"
	"sshmate/internal/handlers"
	"sshmate/internal/intent"
	"sshmate/internal/jobs"
	"sshmate/internal/logging"
	"sshmate/internal/middleware"
	"sshmate/internal/models"
	"sshmate/internal/services"
	"sshmate/internal/sshexec"
	"sshmate/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	logging.Init()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded .env file")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database schema: %v", err)
	}
	log.Printf("✅ Database initialized (%s)", db.Driver())

	// Initialize encryption service for machine credentials
	if cfg.EncryptionMasterKey == "" {
		key, genErr := crypto.GenerateMasterKey()
		if genErr != nil {
			log.Fatalf("❌ Failed to generate master key: %v", genErr)
		}
		log.Fatalf("❌ ENCRYPTION_MASTER_KEY is required. Example key: %s", key)
	}
	encryptionService, err := crypto.NewEncryptionService(cfg.EncryptionMasterKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize encryption service: %v", err)
	}
	log.Println("✅ Encryption service initialized")

	// Initialize SSH executor
	sshExecutor := sshexec.NewSSHExecutor(cfg.SSHConnectTimeout, cfg.SSHCommandTimeout, cfg.SSHCommandRate)
	log.Printf("✅ SSH executor initialized (connect: %s, command: %s, rate: %.1f/s per machine)",
		cfg.SSHConnectTimeout, cfg.SSHCommandTimeout, cfg.SSHCommandRate)

	// Initialize connection manager and metrics
	connManager := services.NewConnectionManager()
	services.InitMetrics(connManager)
	log.Println("✅ Connection manager initialized")

	// Initialize intent catalog
	catalog := intent.NewBuiltinCatalog()
	if cfg.IntentRulesFile != "" {
		added, loadErr := catalog.LoadFile(cfg.IntentRulesFile)
		if loadErr != nil {
			log.Fatalf("❌ Failed to load intent rules from %s: %v", cfg.IntentRulesFile, loadErr)
		}
		log.Printf("✅ Loaded %d custom intent rule(s) from %s", added, cfg.IntentRulesFile)

		// Hot-reload rules on file changes
		go intent.WatchRulesFile(cfg.IntentRulesFile, catalog)
	} else {
		log.Println("⚠️  INTENT_RULES_FILE not set - using built-in intents only")
	}
	classifier := intent.NewClassifier(catalog)
	log.Printf("✅ Intent classifier initialized (%d rules, %d intents)", catalog.Len(), len(catalog.Intents()))

	// Initialize core services
	machineService := services.NewMachineService(db, encryptionService, sshExecutor)
	sessionService := services.NewSessionService()
	historyService := services.NewHistoryService(db)
	agentService := services.NewAgentService(
		sessionService,
		machineService,
		historyService,
		sshExecutor,
		classifier,
		cfg.SSHCommandTimeout,
	)
	log.Println("✅ Agent service initialized")

	// Initialize Redis and pub/sub (optional - enables cross-instance events)
	var pubsubService *services.PubSubService
	if cfg.RedisURL != "" {
		redisService, redisErr := services.NewRedisService(cfg.RedisURL)
		if redisErr != nil {
			log.Printf("⚠️  Failed to connect to Redis: %v - cross-instance events disabled", redisErr)
		} else {
			instanceID := uuid.New().String()[:8]
			pubsubService = services.NewPubSubService(redisService, instanceID)
			pubsubService.Subscribe("session:*:events", func(channel string, msg *services.PubSubMessage) {
				conn, ok := connManager.GetBySession(msg.SessionID)
				if !ok {
					return
				}
				text, _ := msg.Payload["message"].(string)
				conn.SafeSend(models.ServerMessage{
					Type:      msg.Type,
					Message:   text,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			})
			if startErr := pubsubService.Start(); startErr != nil {
				log.Printf("⚠️  Failed to start pub/sub: %v", startErr)
				pubsubService = nil
			} else {
				agentService.SetPubSub(pubsubService)
				log.Printf("✅ Redis pub/sub initialized (instance: %s)", instanceID)
			}
		}
	} else {
		log.Println("⚠️  REDIS_URL not set - cross-instance events disabled")
	}

	// Initialize background job scheduler
	jobScheduler, err := jobs.NewScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to initialize job scheduler: %v", err)
	}
	healthChecker := jobs.NewMachineHealthChecker(machineService, pubsubService)
	if next, cronErr := jobs.ValidateCronExpression(cfg.HealthCheckCron); cronErr != nil {
		log.Fatalf("❌ Invalid HEALTH_CHECK_CRON %q: %v", cfg.HealthCheckCron, cronErr)
	} else {
		log.Printf("📅 Machine health checks scheduled (%s, next: %s)", cfg.HealthCheckCron, next.Format(time.RFC3339))
	}
	if err := jobScheduler.AddCronJob("machine-health-check", cfg.HealthCheckCron, func() {
		if err := healthChecker.Run(context.Background()); err != nil {
			log.Printf("⚠️ Machine health check failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("❌ Failed to schedule machine health check: %v", err)
	}
	jobScheduler.Start()

	// Initialize local JWT auth (optional)
	var jwtAuth *auth.LocalJWTAuth
	if cfg.AuthEnabled {
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, 24*time.Hour)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ Local JWT auth enabled")
	} else {
		log.Println("⚠️  AUTH_ENABLED not set - API is unauthenticated")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "sshmate v1.0",
		ReadTimeout:  600 * time.Second, // command sequences can run for minutes
		WriteTimeout: 600 * time.Second,
		IdleTimeout:  600 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("sshmate")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Load rate limiting configuration
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Command=%d/min, WS=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.CommandMax,
		rateLimitConfig.WebSocketMax,
	)

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	allowCredentials := allowedOrigins != "*"

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowCredentials,
	}))

	// Global API rate limiter
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(connManager, sessionService, db)
	machineHandler := handlers.NewMachineHandler(machineService)
	sessionHandler := handlers.NewSessionHandler(agentService, sessionService, historyService)
	intentHandler := handlers.NewIntentHandler(catalog, cfg.IntentRulesFile)
	wsHandler := handlers.NewWebSocketHandler(connManager, agentService, sessionService)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	if jwtAuth != nil {
		api.Use(middleware.LocalAuthMiddleware(jwtAuth))
	}

	api.Get("/machines", machineHandler.List)
	api.Post("/machines", machineHandler.Create)
	api.Get("/machines/search/:query", machineHandler.Search)
	api.Get("/machines/:id", machineHandler.Get)
	api.Put("/machines/:id", machineHandler.Update)
	api.Delete("/machines/:id", machineHandler.Delete)
	api.Post("/machines/:id/probe", machineHandler.Probe)

	api.Post("/sessions", sessionHandler.Create)
	api.Get("/sessions/:id", sessionHandler.Get)
	api.Get("/sessions/:id/transcript", sessionHandler.Transcript)
	api.Get("/sessions/:id/executions", sessionHandler.Executions)
	api.Post("/sessions/:id/select-machine/:machineID", sessionHandler.SelectMachine)
	api.Post("/sessions/:id/commands", middleware.CommandRateLimiter(rateLimitConfig), sessionHandler.Process)

	api.Get("/intents", intentHandler.List)
	api.Post("/intents/reload", intentHandler.Reload)

	// WebSocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			c.Locals("client_ip", c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Use("/ws", middleware.WebSocketRateLimiter(rateLimitConfig))

	wsConfig := websocket.Config{
		Origins: strings.Split(allowedOrigins, ","),
	}
	app.Get("/ws/:sessionID", websocket.New(wsHandler.Handle, wsConfig))

	// Start server
	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("🔗 WebSocket endpoint: ws://localhost:%s/ws/:sessionID", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("🕐 Background jobs: machine health check (%s)", cfg.HealthCheckCron)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := jobScheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping job scheduler: %v", err)
		}

		if pubsubService != nil {
			if err := pubsubService.Stop(); err != nil {
				log.Printf("⚠️ Error stopping PubSub: %v", err)
			}
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
