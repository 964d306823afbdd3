package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"agendamento-backend/config"
	"agendamento-backend/controllers"
	"agendamento-backend/routes"
	"agendamento-backend/services"
	"agendamento-backend/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	db := config.DB

	apptCfg := config.LoadAppointmentConfig()

	mailer := services.NewMailer(utils.NewSMTPSenderFromEnv(), 64)

	appointmentService := services.NewAppointmentService(db, apptCfg)
	sessionService := services.NewSessionService(db)

	baseURL := utils.EnvOrDefault("BASE_URL", "http://localhost:8080")
	appointmentController := controllers.NewAppointmentController(appointmentService, mailer, baseURL)
	cancelController := controllers.NewCancelController(appointmentService, sessionService, mailer)
	dashboardController := controllers.NewDashboardController(appointmentService)
	authController := controllers.NewAuthController(sessionService)

	router := routes.SetupRouter(
		appointmentController,
		cancelController,
		dashboardController,
		authController,
		sessionService,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	// Flush any queued notification emails before exiting.
	mailer.Close()

	log.Println("server stopped gracefully")
}
