// ============================================================================
// backend/internal/auth/service.go
// Authentication service: login, sessions, JWT, streak-on-login
// ============================================================================

package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"acadpulse/backend/internal/engine"
	"acadpulse/backend/internal/shared"
)

// Service implements authentication and session management.
type Service struct {
	db          *mongo.Database
	config      *shared.Config
	usersCol    *mongo.Collection
	sessionsCol *mongo.Collection
	auditCol    *mongo.Collection
}

// Claims is the JWT payload carried on every authenticated request.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest carries the credentials for a login attempt.
type LoginRequest struct {
	Identifier string `json:"identifier"` // email, student ID, or faculty ID
	Password   string `json:"password"`
	IPAddress  string `json:"-"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *shared.User `json:"user"`

	// Streak outcome of this login, surfaced so the dashboard can celebrate
	Streak     int  `json:"streak"`
	BestStreak int  `json:"best_streak"`
	StreakGrew bool `json:"streak_grew"`
}

// NewService creates a new auth Service instance.
func NewService(db *mongo.Database, config *shared.Config) *Service {
	return &Service{
		db:          db,
		config:      config,
		usersCol:    db.Collection(shared.ColUsers),
		sessionsCol: db.Collection(shared.ColSessions),
		auditCol:    db.Collection(shared.ColAuditLogs),
	}
}

// Login authenticates a user, opens a session, and records the daily activity
// for the login streak.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.Identifier == "" || req.Password == "" {
		return nil, shared.ErrInvalidArgument("identifier and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 1. Find User (by Email OR Student ID/Faculty ID)
	var user shared.User
	filter := bson.M{
		"$or": []bson.M{
			{"email": req.Identifier},
			{"student_id": req.Identifier},
			{"faculty_id": req.Identifier},
		},
	}

	err := s.usersCol.FindOne(queryCtx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrUnauthenticated("invalid credentials")
		}
		return nil, shared.ErrInternal(err, "database error")
	}

	// 2. Check Password (BCrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, shared.ErrUnauthenticated("invalid credentials")
	}

	if !user.IsActive {
		return nil, shared.ErrPermissionDenied("account is inactive")
	}

	// 3. Generate JWT
	tokenString, expiresAt, err := s.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, shared.ErrInternal(err, "failed to generate token")
	}

	// 4. Create Session in DB (allows for server-side logout/revocation)
	session := shared.Session{
		ID:        shared.GenerateID("sess"),
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
		IPAddress: req.IPAddress,
	}

	if _, err := s.sessionsCol.InsertOne(queryCtx, session); err != nil {
		return nil, shared.ErrInternal(err, "failed to create session")
	}

	result := &LoginResult{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		User:      &user,
	}

	// 5. Record streak activity (students only). A streak failure never fails
	// the login itself.
	if user.Role == shared.RoleStudent {
		stats, grew, err := s.recordLoginStreak(queryCtx, user.ID, user.Stats)
		if err != nil {
			log.Printf("Warning: streak update failed for %s: %v", user.ID, err)
			stats = user.Stats
		}
		result.Streak = stats.Streak
		result.BestStreak = stats.BestStreak
		result.StreakGrew = grew
		user.Stats = stats
	}

	_ = shared.LogAuditEvent(ctx, s.auditCol, user.ID, shared.ActionLogin, "session:"+session.ID,
		map[string]interface{}{"ip": req.IPAddress})

	return result, nil
}

// Logout invalidates the user's session. Logout is idempotent: an unknown
// token still reports success.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return shared.ErrInvalidArgument("token is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := s.sessionsCol.DeleteMany(queryCtx, bson.M{"token": token})
	if err != nil {
		return shared.ErrInternal(err, "failed to logout")
	}

	if result.DeletedCount > 0 {
		if claims, err := s.ParseToken(token); err == nil {
			_ = shared.LogAuditEvent(ctx, s.auditCol, claims.UserID, shared.ActionLogout, "session", nil)
		}
	}
	return nil
}

// ValidateToken checks signature, session revocation, and account status, and
// returns the authenticated user.
func (s *Service) ValidateToken(ctx context.Context, token string) (*shared.User, *Claims, error) {
	if token == "" {
		return nil, nil, shared.ErrUnauthenticated("token missing")
	}

	// 1. Parse and Verify Signature locally
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, nil, shared.ErrUnauthenticated("invalid token")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 2. Check Database for Active Session (Revocation Check)
	var session shared.Session
	if err := s.sessionsCol.FindOne(queryCtx, bson.M{"token": token}).Decode(&session); err != nil {
		return nil, nil, shared.ErrUnauthenticated("session expired or revoked")
	}

	// The TTL monitor prunes expired sessions lazily; check the deadline too
	if session.IsExpired() {
		return nil, nil, shared.ErrUnauthenticated("session expired")
	}

	// 3. Fetch User Details
	var user shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": claims.UserID}).Decode(&user); err != nil {
		return nil, nil, shared.ErrUnauthenticated("user not found")
	}

	if !user.IsActive {
		return nil, nil, shared.ErrPermissionDenied("account inactive")
	}

	return &user, claims, nil
}

// ChangePassword updates the user's password and revokes all sessions.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if userID == "" || oldPassword == "" || newPassword == "" {
		return shared.ErrInvalidArgument("all fields required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var user shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return shared.ErrNotFound("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return shared.ErrUnauthenticated("incorrect old password")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.Security.BCryptCost)
	if err != nil {
		return shared.ErrInternal(err, "failed to process password")
	}

	_, err = s.usersCol.UpdateOne(queryCtx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"password_hash": string(newHash),
			"updated_at":    time.Now(),
		},
	})
	if err != nil {
		return shared.ErrInternal(err, "failed to update password")
	}

	// Invalidate existing sessions (Force logout)
	_, _ = s.sessionsCol.DeleteMany(queryCtx, bson.M{"user_id": userID})

	return nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

// recordLoginStreak applies the daily activity to the student's streak state
// with an optimistic compare-and-swap on stats.last_login. Concurrent logins
// on the same day converge on the same state, so a lost race is not retried
// as an error.
func (s *Service) recordLoginStreak(ctx context.Context, userID string, stats shared.UserStats) (shared.UserStats, bool, error) {
	const maxAttempts = 3

	for attempt := 0; attempt < maxAttempts; attempt++ {
		state := engine.StreakState{
			CurrentStreak:    stats.Streak,
			BestStreak:       stats.BestStreak,
			LastActivityDate: stats.LastLogin,
		}

		next, signal, err := engine.RecordActivity(state, time.Now().UTC())
		if err != nil {
			return stats, false, err
		}
		if signal == engine.SignalUnchanged {
			return stats, false, nil
		}

		filter := bson.M{"_id": userID}
		if stats.LastLogin.IsZero() {
			filter["stats.last_login"] = bson.M{"$in": []interface{}{nil, time.Time{}}}
		} else {
			filter["stats.last_login"] = stats.LastLogin
		}

		updated := shared.UserStats{
			Streak:       next.CurrentStreak,
			BestStreak:   next.BestStreak,
			LastLogin:    next.LastActivityDate,
			TotalClasses: stats.TotalClasses,
			TotalPresent: stats.TotalPresent,
		}

		result, err := s.usersCol.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
			"stats.streak":      updated.Streak,
			"stats.best_streak": updated.BestStreak,
			"stats.last_login":  updated.LastLogin,
		}})
		if err != nil {
			return stats, false, err
		}
		if result.ModifiedCount > 0 {
			return updated, true, nil
		}

		// Lost the race: reload and retry with fresh state
		var fresh shared.User
		if err := s.usersCol.FindOne(ctx, bson.M{"_id": userID}).Decode(&fresh); err != nil {
			return stats, false, err
		}
		stats = fresh.Stats
	}

	return stats, false, nil
}

// GenerateToken creates a signed JWT for the given user.
func (s *Service) GenerateToken(userID, role string) (string, time.Time, error) {
	expirationTime := time.Now().Add(time.Duration(s.config.Security.JWTExpirationHours) * time.Hour)

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique ID (jti) keeps tokens distinct even at identical timestamps
			ID:        shared.GenerateID("jti"),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "acadpulse",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))

	return tokenString, expirationTime, err
}

// ParseToken validates the JWT signature and extracts claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Security.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// HashPassword hashes a plaintext password with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Security.BCryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
