package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qrevent/qrevent/config"
	"github.com/qrevent/qrevent/internal/auth"
	"github.com/qrevent/qrevent/internal/handlers"
	"github.com/qrevent/qrevent/internal/metrics"
	"github.com/qrevent/qrevent/internal/middleware"
	"github.com/qrevent/qrevent/internal/models"
	"github.com/qrevent/qrevent/internal/service"
	"github.com/qrevent/qrevent/internal/store"
	"github.com/qrevent/qrevent/internal/telemetry"
	"github.com/qrevent/qrevent/internal/ticketing"
)

const serviceName = "qrevent"

// App holds the dependencies shared by the HTTP handlers.
type App struct {
	Store   *store.Store
	Service *service.Service
	Issuer  *auth.Issuer
}

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}
	st := store.New(db)
	defer st.Close()

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("failed to configure auth: %v", err)
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("failed to configure tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown failed: %v", err)
		}
	}()

	metrics.Register(prometheus.DefaultRegisterer)

	svc := service.New(st, ticketing.NewTokenGenerator(), ticketing.NewEncoder(cfg.QRSize, cfg.QRRecovery))

	gin.SetMode(cfg.GinMode)
	r := gin.Default()
	setupRoutes(r, App{Store: st, Service: svc, Issuer: issuer})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %v", err)
	case <-quit:
	}
	log.Println("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %v", err)
	}

	log.Println("server shutdown complete")
	return nil
}

// NewRouter builds a gin engine with every route registered.
func NewRouter(app App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	setupRoutes(r, app)
	return r
}

func setupRoutes(r *gin.Engine, app App) {
	r.Use(middleware.MetricsMiddleware())

	health := handlers.NewHealthHandler(app.Store)
	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(app.Store, app.Issuer)
	events := handlers.NewEventHandler(app.Store)
	tickets := handlers.NewTicketHandler(app.Store, app.Service)
	categories := handlers.NewCategoryHandler(app.Store)
	profile := handlers.NewProfileHandler(app.Store)
	dashboard := handlers.NewDashboardHandler(app.Store)

	managers := middleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	public := r.Group("/api")
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
	}

	protected := r.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware(app.Issuer))
	{
		eventGroup := protected.Group("/events")
		{
			eventGroup.GET("", events.ListEvents)
			eventGroup.GET("/:id", events.GetEvent)
			eventGroup.POST("", managers, events.CreateEvent)
			eventGroup.PUT("/:id", managers, events.UpdateEvent)
			eventGroup.DELETE("/:id", managers, events.DeleteEvent)
			eventGroup.GET("/organizer/me", middleware.RequireRoles(models.RoleOrganizer), events.GetOrganizerEvents)

			eventGroup.POST("/:id/register", tickets.RegisterToEvent)
			eventGroup.DELETE("/:id/register", tickets.UnregisterFromEvent)
			eventGroup.POST("/:id/ticket", tickets.IssueTicket)
			eventGroup.GET("/:id/ticket/qr", tickets.GetTicketQR)
			eventGroup.GET("/:id/tickets", managers, tickets.ListTickets)
			eventGroup.POST("/:id/participants", managers, tickets.AddParticipant)
			eventGroup.DELETE("/:id/participants/:participantId", managers, tickets.RemoveParticipant)
			eventGroup.POST("/validate-qr", managers, tickets.ValidateQRCode)
		}

		categoryGroup := protected.Group("/categories")
		{
			categoryGroup.GET("", categories.ListCategories)
			categoryGroup.GET("/id/:id", categories.GetCategory)
			categoryGroup.GET("/name/:name", categories.GetCategoryByName)
			categoryGroup.POST("", adminOnly, categories.CreateCategory)
			categoryGroup.PUT("/:id", adminOnly, categories.UpdateCategory)
			categoryGroup.DELETE("/:id", adminOnly, categories.DeleteCategory)
		}

		userGroup := protected.Group("/users")
		{
			userGroup.GET("/me", profile.GetProfile)
			userGroup.PUT("/me", profile.UpdateProfile)
			userGroup.GET("/me/events", profile.GetMyEvents)
		}

		dashboardGroup := protected.Group("/dashboard")
		{
			dashboardGroup.GET("/organizer-stats", managers, dashboard.GetOrganizerStats)
			dashboardGroup.GET("/admin-stats", adminOnly, dashboard.GetAdminStats)
		}
	}
}
