package api

import (
	"fmt"
	"net/http"

	"attendly/internal/cache"
	"attendly/internal/config"
	"attendly/internal/database"
	"attendly/internal/handlers"
	"attendly/internal/logger"
	"attendly/internal/messaging"
	"attendly/internal/metrics"
	"attendly/internal/middleware"
	"attendly/internal/repository"
	"attendly/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the HTTP API together
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	metrics  *metrics.Metrics
	services *service.Services
	repos    *repository.Repositories
}

// NewServer connects all the backing services and builds the router
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	// The capacity cache is optional: with no Valkey address configured the
	// API serves every snapshot from Postgres.
	var valkeyClient *cache.ValkeyClient
	if cfg.Cache.Addr != "" {
		valkeyClient, err = cache.NewValkeyClient(cfg.Cache)
		if err != nil {
			logger.Get().Warn("Valkey unavailable, serving snapshots from database", "error", err)
			valkeyClient = nil
		}
	}

	m := metrics.New()
	repos := repository.NewRepositories(db)

	var snapshotCache service.SnapshotCache
	if valkeyClient != nil {
		snapshotCache = valkeyClient
	}
	services := service.NewServices(repos, natsClient, snapshotCache, m, service.Policy{
		FeedbackRequireAttendance: cfg.FeedbackRequireAttendance,
	})

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		metrics:  m,
		services: services,
		repos:    repos,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.valkey, s.metrics)

	api := s.router.Group("/api")
	api.Use(middleware.BasicAuth(s.repos.Users, s.valkey))
	{
		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("/:id", h.GetEvent)
			events.GET("/:id/capacity", h.GetCapacity)
			events.GET("/:id/log", h.GetAttendanceLog)

			events.POST("/:id/attendance", h.Join)
			events.DELETE("/:id/attendance", h.Leave)
			events.POST("/:id/attendance/:userId/confirm", h.ConfirmAttendee)
			events.POST("/:id/attendance/:userId/waitlist", h.WaitlistAttendee)
			events.POST("/:id/attendance/:userId/cancel", h.CancelAttendee)
			events.POST("/:id/attendance/:userId/checkin", h.CheckInAttendee)
			events.POST("/:id/attendance/:userId/noshow", h.MarkNoShow)
			events.POST("/:id/sweep", h.SweepEvent)

			events.POST("/:id/feedback", h.SubmitFeedback)
			events.GET("/:id/feedback", h.ListFeedback)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
}

func (s *Server) healthCheck(c *gin.Context) {
	health := s.db.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":   health.Status,
		"service":  "attendly-api",
		"database": health,
	})
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes backing connections
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			logger.Get().Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
