package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/client-service/internal/api"
	"github.com/hypernova-labs/client-service/internal/config"
	"github.com/hypernova-labs/client-service/internal/countries"
	"github.com/hypernova-labs/client-service/internal/database"
	"github.com/hypernova-labs/client-service/internal/email"
	"github.com/hypernova-labs/client-service/internal/logging"
	"github.com/hypernova-labs/client-service/internal/metrics"
	"github.com/hypernova-labs/client-service/internal/services"
	"github.com/hypernova-labs/client-service/internal/workflows"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	// Cargar configuración
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Configurar logging
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting client service...")

	// Configurar modo de Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Métricas
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	checks := make(map[string]api.HealthChecker)

	// Almacenamiento de clientes
	var store database.ClientStore
	if cfg.UsesMemoryStore() {
		logger.Warn("Using in-memory client store, data will not survive a restart")
		store = database.NewMemoryClientRepository(logger)
	} else {
		db, err := database.Connect(cfg, logger)
		if err != nil {
			logger.Fatalf("Error connecting to database: %v", err)
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := database.Migrate(db, logger); err != nil {
				logger.Fatalf("Error running migrations: %v", err)
			}
		}

		db.LogStats(logger)
		checks["database"] = db
		store = database.NewClientRepository(db, logger)
	}

	// Conectar a Redis; sin Redis no hay rate limiting
	var limiter api.WindowCounter
	redis, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Warnf("Error connecting to Redis, rate limiting disabled: %v", err)
	} else {
		defer redis.Close()
		redis.LogStats(logger)
		limiter = redis
		checks["redis"] = redis
	}

	// Inicializar cliente de Supabase
	var storage services.RosterStorage
	if cfg.StorageConfigured() {
		supabaseClient, err := database.NewSupabaseClient(&cfg.Supabase, logger)
		if err != nil {
			logger.Warnf("Error initializing Supabase client: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := supabaseClient.HealthCheck(ctx); err != nil {
				logger.Warnf("Supabase health check failed: %v", err)
			} else {
				logger.Info("Supabase storage connection healthy")
			}
			cancel()
			storage = supabaseClient
			checks["storage"] = supabaseClient
		}
	} else {
		logger.Warn("Supabase storage credentials not provided, roster archiving will not be available")
	}

	// Inicializar servicio de Resend
	var sender workflows.WelcomeSender
	if cfg.Email.ResendAPIKey != "" {
		sender = email.NewResendService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, logger)
		logger.Info("Resend service initialized successfully")
	} else {
		logger.Warn("Resend API key not provided, welcome emails will not be sent")
	}

	// Inicializar cliente de Inngest
	var publisher services.EventPublisher = workflows.NewLogPublisher(logger)
	var inngestHandler http.Handler
	inngestClient, err := workflows.NewInngestClient(cfg, logger)
	if err != nil {
		logger.Warnf("Inngest not available, lifecycle events will only be logged: %v", err)
	} else {
		if err := inngestClient.RegisterWorkflows(sender); err != nil {
			logger.Warnf("Error registering workflows: %v", err)
		}
		publisher = inngestClient
		inngestHandler = inngestClient.Handler()
	}

	// Inicializar servicios
	resolver := countries.NewClient(cfg.Countries.BaseURL, cfg.Countries.Timeout, logger, m)
	clientService := services.NewClientService(store, resolver, publisher, m, logger)
	exportService := services.NewExportService(clientService, storage, logger)

	// Inicializar API
	apiHandler := api.NewAPI(clientService, exportService, checks, logger)

	router := api.NewRouter(apiHandler, api.RouterOptions{
		Metrics:        m,
		Gatherer:       registry,
		Limiter:        limiter,
		RateLimit:      cfg.RateLimit.Default + cfg.RateLimit.Burst,
		RateWindow:     time.Minute,
		InngestHandler: inngestHandler,
		EnableCORS:     cfg.IsDevelopment(),
		Logger:         logger,
	})

	// Crear servidor HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Canal para señales de terminación
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Iniciar servidor en goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"host":  cfg.Server.Host,
			"port":  cfg.Server.Port,
			"store": cfg.Database.Driver,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	// Esperar señal de terminación
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
