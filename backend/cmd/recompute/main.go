// ============================================================================
// backend/cmd/recompute/main.go
// Offline recompute job: rebuilds derived counters and pulse snapshots
// ============================================================================

package main

import (
	"context"
	"log"
	"time"

	"acadpulse/backend/internal/admin"
	"acadpulse/backend/internal/attendance"
	"acadpulse/backend/internal/auth"
	"acadpulse/backend/internal/filestore"
	"acadpulse/backend/internal/grade"
	"acadpulse/backend/internal/shared"
	"acadpulse/backend/internal/student"
)

func main() {
	log.Println("Starting recompute sweep...")

	shared.LoadEnv(".env")

	config, err := shared.LoadConfig("recompute")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	store, err := filestore.New(config.DataDir)
	if err != nil {
		log.Printf("Warning: offline snapshot store disabled: %v", err)
	}

	authSvc := auth.NewService(db, config)
	attendanceSvc := attendance.NewService(db)
	gradeSvc := grade.NewService(db, config)
	studentSvc := student.NewService(db, store, attendanceSvc, gradeSvc)
	adminSvc := admin.NewService(db, config, authSvc, studentSvc)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := adminSvc.RecomputeAll(ctx, "system")
	if err != nil {
		log.Fatalf("Recompute failed: %v", err)
	}

	log.Printf("Recompute done: %d students, %d failed, took %s", result.Students, result.Failed, result.Duration)
}
