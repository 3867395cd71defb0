package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/panchi64/attendance-tracker/internal/handler/http"
	wsHandler "github.com/panchi64/attendance-tracker/internal/handler/websocket"
	"github.com/panchi64/attendance-tracker/internal/hub"
	gormpersistence "github.com/panchi64/attendance-tracker/internal/infra/persistence/gorm"
	"github.com/panchi64/attendance-tracker/internal/infra/setup"
	"github.com/panchi64/attendance-tracker/internal/middleware"
	"github.com/panchi64/attendance-tracker/internal/service"
	"github.com/panchi64/attendance-tracker/internal/tasks"
	"github.com/panchi64/attendance-tracker/internal/worker"
)

// Config holds everything loaded from the environment at startup. It is read
// once here; no other package touches os.Getenv.
type Config struct {
	DBPath                   string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	ServerPort               string
	LogLevel                 string
	AppEnv                   string
	RotationInterval         time.Duration
	CodeCaseSensitive        bool
	RateLimitMax             int
	RateLimitWindow          time.Duration
	DeviceClaimRetentionDays int
	CORSAllowedOrigin        string
}

// LoadConfig reads configuration from the environment, preferring a .env
// file when one exists.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:        os.Getenv("DB_PATH"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AppEnv:        os.Getenv("APP_ENV"),
		// Defaults below; overridable via environment.
		RotationInterval:         5 * time.Minute,
		RateLimitMax:             30,
		RateLimitWindow:          1 * time.Minute,
		DeviceClaimRetentionDays: 7,
		CORSAllowedOrigin:        os.Getenv("CORS_ALLOWED_ORIGIN"),
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	if v := os.Getenv("CODE_ROTATION_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid CODE_ROTATION_INTERVAL %q", v)
		}
		cfg.RotationInterval = d
	}
	if v := os.Getenv("CODE_CASE_SENSITIVE"); v != "" {
		cfg.CodeCaseSensitive, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.RateLimitWindow = d
		}
	}
	if v := os.Getenv("DEVICE_CLAIM_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DeviceClaimRetentionDays = n
		}
	}

	if cfg.DBPath == "" {
		cfg.DBPath = "attendance.db"
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.CORSAllowedOrigin == "" {
		cfg.CORSAllowedOrigin = "http://localhost:3000"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App wires every component together and owns their lifecycles.
type App struct {
	Config         *Config
	Log            *logrus.Logger
	DB             *gorm.DB
	RedisClient    *redis.Client
	AsynqClient    *asynq.Client
	AsynqServer    *worker.WorkerServer
	Hub            *hub.Hub
	CodeService    *service.CodeService
	HttpServer     *http.Server
	redisClientOpt asynq.RedisClientOpt
	rotationCancel context.CancelFunc
	scheduler      *asynq.Scheduler
}

// NewApp creates and initializes all application components.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	logrus.SetLevel(logLevel)
	log.Infof("Logger initialized (Level: %s)", logLevel.String())

	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	log.Info("Database initialized")

	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Asynq client initialized")

	log.Info("Initializing repositories...")
	courseRepo := gormpersistence.NewGormCourseRepository(db)
	attendanceRepo := gormpersistence.NewGormAttendanceRepository(db)
	deviceRepo := gormpersistence.NewGormDeviceSubmissionRepository(db)
	log.Info("Repositories initialized")

	log.Info("Initializing hub...")
	hubInstance := hub.NewHub(attendanceRepo)
	log.Info("Hub initialized")

	log.Info("Initializing services...")
	codeService := service.NewCodeService(courseRepo, cfg.RotationInterval, cfg.CodeCaseSensitive)
	attendanceService := service.NewAttendanceService(codeService, attendanceRepo, deviceRepo, hubInstance)
	log.Info("Services initialized")

	log.Info("Initializing handlers...")
	attendanceHandler := httpHandler.NewAttendanceHandler(attendanceService)
	codeHandler := httpHandler.NewCodeHandler(codeService)
	webSocketHandler := wsHandler.NewWebSocketHandler(hubInstance, courseRepo)
	log.Info("Handlers initialized")

	log.Info("Initializing worker server...")
	workerServer := worker.NewWorkerServer(redisClientOpt, deviceRepo, log)
	log.Info("Worker server initialized")

	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := router.Group("/api")
	{
		// Students submit from their own devices, so the submission route is
		// rate limited rather than host-gated.
		api.POST("/attendance",
			middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow),
			attendanceHandler.Submit)
		api.GET("/courses/:courseId/attendance/today", attendanceHandler.CountToday)

		hostRoutes := api.Group("/host").Use(middleware.HostOnly())
		{
			hostRoutes.GET("/courses/:courseId/confirmation-code", codeHandler.GetCurrent)
			hostRoutes.POST("/courses/:courseId/confirmation-code", codeHandler.Regenerate)
		}
	}
	wsRoutes := router.Group("/ws").Use(middleware.HostOnly())
	{
		wsRoutes.GET("/courses/:courseId", webSocketHandler.HandleConnection)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	app := &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            hubInstance,
		CodeService:    codeService,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}
	log.Info("Application assembled successfully")

	return app, nil
}

// Start launches the background routines and the HTTP server.
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	rotationCtx, cancel := context.WithCancel(context.Background())
	a.rotationCancel = cancel
	go a.CodeService.RunRotation(rotationCtx)
	a.Log.Info("Code rotation routine started")

	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// buildScheduler creates the asynq scheduler with the periodic tasks
// registered. No redis traffic happens until the scheduler runs.
func (a *App) buildScheduler() (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	task, err := tasks.NewDeviceClaimPurgeTask(a.Config.DeviceClaimRetentionDays)
	if err != nil {
		return nil, fmt.Errorf("create device claim purge task payload: %w", err)
	}

	schedule := "@every 24h"
	entryID, err := scheduler.Register(schedule, task, asynq.Queue("low"))
	if err != nil {
		return nil, fmt.Errorf("register periodic device claim purge task: %w", err)
	}
	a.Log.Infof("Periodic device claim purge task registered with schedule '%s' (EntryID: %s)", schedule, entryID)

	return scheduler, nil
}

func (a *App) registerPeriodicTasks() {
	scheduler, err := a.buildScheduler()
	if err != nil {
		a.Log.Errorf("Scheduler setup failed: %v", err)
		return
	}
	// Kept on the App so Shutdown can stop it.
	a.scheduler = scheduler

	go func() {
		a.Log.Info("Asynq scheduler starting...")
		if err := scheduler.Run(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
				a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
			} else {
				a.Log.Info("Asynq scheduler stopped.")
			}
		}
	}()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.rotationCancel != nil {
		a.rotationCancel()
	}

	if a.Hub != nil {
		a.Hub.Stop()
	}

	if a.scheduler != nil {
		a.Log.Info("Shutting down scheduler...")
		a.scheduler.Shutdown()
	}

	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		} else {
			a.Log.Info("Asynq client closed.")
		}
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs each request with status, latency, and client IP.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else {
			if statusCode >= 500 {
				entry.Error("Server error")
			} else if statusCode >= 400 {
				entry.Warn("Client error")
			} else {
				entry.Info("Request handled")
			}
		}
	}
}
