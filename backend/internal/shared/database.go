// ============================================================================
// backend/internal/shared/database.go
// MongoDB connection, index setup, and helper utilities
// ============================================================================

package shared

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names used across services.
const (
	ColUsers      = "users"
	ColSessions   = "sessions"
	ColCourses    = "courses"
	ColAttendance = "attendance"
	ColGrades     = "grades"
	ColPulse      = "academic_pulse"
	ColAuditLogs  = "audit_logs"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
	MaxIdleTime    time.Duration
}

// ConnectMongoDB establishes a connection to MongoDB Atlas/local with proper
// pool configuration and verifies it with a ping.
func ConnectMongoDB(config *MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if config == nil {
		return nil, nil, fmt.Errorf("mongo config cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetMaxConnIdleTime(config.MaxIdleTime).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(config.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("Successfully connected to MongoDB (Database: %s)", config.Database)

	db := client.Database(config.Database)
	return client, db, nil
}

// DisconnectMongoDB gracefully closes the MongoDB connection.
func DisconnectMongoDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	log.Println("Successfully disconnected from MongoDB")
	return nil
}

// EnsureIndexes creates the indexes the services rely on. The unique index on
// (student_id, subject, date) is what makes attendance marking an idempotent
// upsert instead of a duplicate insert.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	attendanceIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "subject", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "subject", Value: 1},
				{Key: "section", Value: 1},
				{Key: "branch", Value: 1},
				{Key: "year", Value: 1},
				{Key: "date", Value: 1},
			},
		},
	}
	if _, err := db.Collection(ColAttendance).Indexes().CreateMany(ctx, attendanceIndexes); err != nil {
		return fmt.Errorf("failed to create attendance indexes: %w", err)
	}

	gradeIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "course_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "semester", Value: 1}}},
	}
	if _, err := db.Collection(ColGrades).Indexes().CreateMany(ctx, gradeIndexes); err != nil {
		return fmt.Errorf("failed to create grade indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "student_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	if _, err := db.Collection(ColUsers).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	sessionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
	if _, err := db.Collection(ColSessions).Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	log.Println("MongoDB indexes ensured")
	return nil
}

// ============================================================================
// ID Generation Helpers
// ============================================================================

// GenerateID generates a unique ID with a type prefix.
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

// ============================================================================
// Audit Logging Helper
// ============================================================================

// LogAuditEvent writes an audit event to the audit_logs collection. Failures
// are logged but not fatal: audit logging must never block the main action.
func LogAuditEvent(ctx context.Context, auditCol *mongo.Collection, userID, action, resource string, details map[string]interface{}) error {
	if auditCol == nil {
		return fmt.Errorf("audit collection is nil")
	}

	entry := AuditLog{
		ID:        GenerateID("audit"),
		Timestamp: time.Now(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		Details:   details,
	}

	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := auditCol.InsertOne(insertCtx, entry); err != nil {
		log.Printf("Warning: Failed to log audit event: %v", err)
		return err
	}
	return nil
}

// ============================================================================
// Query Helpers
// ============================================================================

// BuildFindOptions creates common find options with defaults.
func BuildFindOptions(limit int64, sortField string, sortOrder int) *options.FindOptions {
	opts := options.Find()

	if limit > 0 {
		opts.SetLimit(limit)
	}
	if sortField != "" {
		opts.SetSort(bson.D{{Key: sortField, Value: sortOrder}})
	}
	return opts
}

// CountDocumentsWithTimeout counts documents with a bounded query context.
func CountDocumentsWithTimeout(ctx context.Context, col *mongo.Collection, filter bson.M, timeout time.Duration) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	count, err := col.CountDocuments(queryCtx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
