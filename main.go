// File: casabay/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casabay/config"
	"casabay/cron"
	"casabay/database"
	bookingRepo "casabay/database/repository/booking"
	settlementRepo "casabay/database/repository/settlement"
	"casabay/handlers"
	"casabay/middleware"
	"casabay/routes"
	"casabay/services/notification"
	"casabay/services/reconciliation"
	"casabay/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bkRepo := bookingRepo.NewMongoBookingRepo()
	stRepo := settlementRepo.NewMongoSettlementRepo()

	// services.
	notificationService := notification.NewDefaultNotificationService(logger)

	reconciliationService := &reconciliation.DefaultReconciliationService{
		Bookings:    bkRepo,
		Settlements: stRepo,
		Notifier:    notificationService,
		CacheClient: utils.GetCacheClient(),
		Logger:      logger,
	}

	bookingHandler := handlers.NewBookingHandler(bkRepo, logger)
	settlementHandler := handlers.NewSettlementHandler(reconciliationService, logger)

	handlerBundle := &routes.HandlerBundle{
		Booking:    bookingHandler,
		Settlement: settlementHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background worker that flags overdue bank transfers for review.
	cron.InitExpirySweepWorker(reconciliationService, notificationService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
