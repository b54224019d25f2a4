// ============================================================================
// backend/cmd/api/main.go
// HTTP API server entry point
// ============================================================================

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"acadpulse/backend/internal/admin"
	"acadpulse/backend/internal/api"
	"acadpulse/backend/internal/attendance"
	"acadpulse/backend/internal/auth"
	"acadpulse/backend/internal/filestore"
	"acadpulse/backend/internal/grade"
	"acadpulse/backend/internal/shared"
	"acadpulse/backend/internal/student"
)

func main() {
	log.Println("INFO: Starting AcadPulse API...")

	shared.LoadEnv(".env")

	config, err := shared.LoadConfig("api")
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if config.IsDevelopment() {
		shared.PrintConfig(config)
	}

	// 1. Connect MongoDB and ensure indexes
	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := shared.EnsureIndexes(indexCtx, db); err != nil {
		indexCancel()
		log.Fatalf("FATAL: Failed to ensure indexes: %v", err)
	}
	indexCancel()

	// 2. Wire Services
	store, err := filestore.New(config.DataDir)
	if err != nil {
		log.Printf("WARN: offline snapshot store disabled: %v", err)
	}

	authSvc := auth.NewService(db, config)
	attendanceSvc := attendance.NewService(db)
	gradeSvc := grade.NewService(db, config)
	studentSvc := student.NewService(db, store, attendanceSvc, gradeSvc)
	adminSvc := admin.NewService(db, config, authSvc, studentSvc)

	// 3. Setup Routes and Middleware
	router := api.SetupRoutes(&api.Services{
		Config:     config,
		Auth:       authSvc,
		Attendance: attendanceSvc,
		Grades:     gradeSvc,
		Students:   studentSvc,
		Admin:      adminSvc,
	})

	// 4. Configure Server
	server := &http.Server{
		Addr:         ":" + config.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Start Server in a Goroutine
	go func() {
		log.Printf("INFO: API listening on port %s", config.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("INFO: Shutting down API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Forced shutdown: %v", err)
	}

	log.Println("INFO: API stopped.")
}
