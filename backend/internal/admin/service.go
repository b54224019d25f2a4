// ============================================================================
// backend/internal/admin/service.go
// Admin service: user management, system stats, analytics, recompute
// ============================================================================

package admin

import (
	"context"
	"log"
	"time"

	"github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"acadpulse/backend/internal/auth"
	"acadpulse/backend/internal/shared"
	"acadpulse/backend/internal/student"
)

// Service implements administrative operations.
type Service struct {
	db            *mongo.Database
	config        *shared.Config
	usersCol      *mongo.Collection
	coursesCol    *mongo.Collection
	attendanceCol *mongo.Collection
	gradesCol     *mongo.Collection
	sessionsCol   *mongo.Collection
	pulseCol      *mongo.Collection
	auditCol      *mongo.Collection

	authSvc    *auth.Service
	studentSvc *student.Service
}

// NewService creates a new admin Service instance.
func NewService(db *mongo.Database, config *shared.Config, authSvc *auth.Service, studentSvc *student.Service) *Service {
	return &Service{
		db:            db,
		config:        config,
		usersCol:      db.Collection(shared.ColUsers),
		coursesCol:    db.Collection(shared.ColCourses),
		attendanceCol: db.Collection(shared.ColAttendance),
		gradesCol:     db.Collection(shared.ColGrades),
		sessionsCol:   db.Collection(shared.ColSessions),
		pulseCol:      db.Collection(shared.ColPulse),
		auditCol:      db.Collection(shared.ColAuditLogs),
		authSvc:       authSvc,
		studentSvc:    studentSvc,
	}
}

// ============================================================================
// User Management
// ============================================================================

// CreateUserRequest carries a new account.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`

	StudentID string `json:"student_id,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Year      string `json:"year,omitempty"`
	Section   string `json:"section,omitempty"`

	FacultyID  string `json:"faculty_id,omitempty"`
	Department string `json:"department,omitempty"`
}

// CreateUser creates a new user account.
func (s *Service) CreateUser(ctx context.Context, adminID string, req CreateUserRequest) (*shared.User, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, shared.ErrInvalidArgument("email, password, and name are required")
	}
	if !shared.IsValidRole(req.Role) {
		return nil, shared.ErrInvalidArgument("unknown role: %s", req.Role)
	}
	if req.Role == shared.RoleStudent && req.StudentID == "" {
		return nil, shared.ErrInvalidArgument("student accounts require a student_id")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := s.usersCol.CountDocuments(queryCtx, bson.M{"email": req.Email})
	if err != nil {
		return nil, shared.ErrInternal(err, "db error")
	}
	if count > 0 {
		return nil, shared.ErrAlreadyExists("email already registered: %s", req.Email)
	}

	hash, err := s.authSvc.HashPassword(req.Password)
	if err != nil {
		return nil, shared.ErrInternal(err, "failed to hash password")
	}

	user := shared.User{
		ID:           shared.GenerateID("user"),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Name:         req.Name,
		StudentID:    req.StudentID,
		Branch:       req.Branch,
		Year:         req.Year,
		Section:      req.Section,
		FacultyID:    req.FacultyID,
		Department:   req.Department,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if _, err := s.usersCol.InsertOne(queryCtx, user); err != nil {
		return nil, shared.ErrInternal(err, "failed to create user")
	}

	_ = shared.LogAuditEvent(ctx, s.auditCol, adminID, shared.ActionUserCreate,
		"user:"+user.ID, map[string]interface{}{"role": user.Role})

	user.PasswordHash = ""
	return &user, nil
}

// SetUserActive enables or disables an account. Disabling also revokes
// sessions.
func (s *Service) SetUserActive(ctx context.Context, userID string, active bool) error {
	if userID == "" {
		return shared.ErrInvalidArgument("user_id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := s.usersCol.UpdateOne(queryCtx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{"is_active": active, "updated_at": time.Now()},
	})
	if err != nil {
		return shared.ErrInternal(err, "failed to update user")
	}
	if result.MatchedCount == 0 {
		return shared.ErrNotFound("user not found: %s", userID)
	}

	if !active {
		_, _ = s.sessionsCol.DeleteMany(queryCtx, bson.M{"user_id": userID})
	}
	return nil
}

// ============================================================================
// System Stats
// ============================================================================

// GetSystemStats counts the collections the admin dashboard reports.
func (s *Service) GetSystemStats(ctx context.Context) (*shared.SystemStats, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out := &shared.SystemStats{}

	counts := []struct {
		col    *mongo.Collection
		filter bson.M
		dest   *int64
	}{
		{s.usersCol, bson.M{"role": shared.RoleStudent}, &out.TotalStudents},
		{s.usersCol, bson.M{"role": shared.RoleFaculty}, &out.TotalFaculty},
		{s.coursesCol, bson.M{}, &out.TotalCourses},
		{s.attendanceCol, bson.M{}, &out.TotalAttendance},
		{s.gradesCol, bson.M{}, &out.TotalGradeRecords},
		{s.gradesCol, bson.M{"result_published_date": bson.M{"$nin": []interface{}{nil, time.Time{}}}}, &out.PublishedGrades},
		{s.sessionsCol, bson.M{"expires_at": bson.M{"$gt": time.Now()}}, &out.ActiveSessionCount},
	}

	g, groupCtx := errgroup.WithContext(queryCtx)
	for _, c := range counts {
		c := c
		g.Go(func() error {
			n, err := shared.CountDocumentsWithTimeout(groupCtx, c.col, c.filter, 10*time.Second)
			if err != nil {
				return err
			}
			*c.dest = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, shared.ErrInternal(err, "failed to gather system stats")
	}

	return out, nil
}

// ============================================================================
// Analytics
// ============================================================================

// Distribution summarizes one metric across the student body.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// Analytics is the institution-wide distribution report.
type Analytics struct {
	Attendance Distribution `json:"attendance"`
	CGPA       Distribution `json:"cgpa"`
	ComputedAt time.Time    `json:"computed_at"`
}

// GetAnalytics summarizes the attendance and CGPA distributions from the
// persisted pulse snapshots. Run a recompute first for fully fresh numbers.
func (s *Service) GetAnalytics(ctx context.Context) (*Analytics, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cursor, err := s.pulseCol.Find(queryCtx, bson.M{})
	if err != nil {
		return nil, shared.ErrInternal(err, "failed to query pulse snapshots")
	}
	defer cursor.Close(queryCtx)

	var attendancePct, cgpas []float64
	for cursor.Next(queryCtx) {
		var doc shared.AcademicPulseDoc
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		attendancePct = append(attendancePct, float64(doc.AttendancePercentage))
		cgpas = append(cgpas, doc.CGPA)
	}

	return &Analytics{
		Attendance: describe(attendancePct),
		CGPA:       describe(cgpas),
		ComputedAt: time.Now(),
	}, nil
}

// describe computes the summary statistics for one sample. Empty samples
// yield a zero distribution.
func describe(sample []float64) Distribution {
	if len(sample) == 0 {
		return Distribution{}
	}

	data := stats.Float64Data(sample)

	mean, _ := data.Mean()
	median, _ := data.Median()
	stdDev, _ := data.StandardDeviation()
	min, _ := data.Min()
	max, _ := data.Max()
	p25, _ := data.Percentile(25)
	p75, _ := data.Percentile(75)

	return Distribution{
		Count:  len(sample),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		P25:    p25,
		P75:    p75,
	}
}

// ============================================================================
// Audit Log
// ============================================================================

// GetAuditLogs returns recent audit entries, optionally filtered by user or
// action.
func (s *Service) GetAuditLogs(ctx context.Context, userID, action string, limit int64) ([]shared.AuditLog, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	if action != "" {
		filter["action"] = action
	}
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	cursor, err := s.auditCol.Find(queryCtx, filter, shared.BuildFindOptions(limit, "timestamp", -1))
	if err != nil {
		return nil, shared.ErrInternal(err, "failed to query audit logs")
	}
	defer cursor.Close(queryCtx)

	var logs []shared.AuditLog
	if err := cursor.All(queryCtx, &logs); err != nil {
		return nil, shared.ErrInternal(err, "failed to decode audit logs")
	}
	return logs, nil
}

// ============================================================================
// Recompute
// ============================================================================

// RecomputeResult reports one recompute sweep.
type RecomputeResult struct {
	Students int       `json:"students"`
	Failed   int       `json:"failed"`
	Duration string    `json:"duration"`
	Ran      time.Time `json:"ran"`
}

// recomputeWorkers bounds the per-student fan-out.
const recomputeWorkers = 8

// RecomputeAll rebuilds every student's denormalized counters and pulse
// snapshot from raw attendance and grade records. One student failing does
// not stop the sweep.
func (s *Service) RecomputeAll(ctx context.Context, triggeredBy string) (*RecomputeResult, error) {
	start := time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	cursor, err := s.usersCol.Find(queryCtx, bson.M{"role": shared.RoleStudent})
	if err != nil {
		return nil, shared.ErrInternal(err, "failed to list students")
	}
	var students []shared.User
	if err := cursor.All(queryCtx, &students); err != nil {
		return nil, shared.ErrInternal(err, "failed to decode students")
	}

	var failed int
	failures := make(chan string, len(students))

	g, groupCtx := errgroup.WithContext(queryCtx)
	g.SetLimit(recomputeWorkers)

	for _, st := range students {
		st := st
		g.Go(func() error {
			if err := s.recomputeStudent(groupCtx, st.ID); err != nil {
				log.Printf("[recompute] student %s failed: %v", st.ID, err)
				failures <- st.ID
			}
			// Per-student errors are collected, not propagated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, shared.ErrInternal(err, "recompute sweep aborted")
	}
	close(failures)
	for range failures {
		failed++
	}

	result := &RecomputeResult{
		Students: len(students),
		Failed:   failed,
		Duration: time.Since(start).String(),
		Ran:      start,
	}

	_ = shared.LogAuditEvent(ctx, s.auditCol, triggeredBy, shared.ActionRecompute, "students",
		map[string]interface{}{"students": result.Students, "failed": result.Failed})

	log.Printf("[recompute] swept %d students (%d failed) in %s", result.Students, failed, result.Duration)
	return result, nil
}

// recomputeStudent restores one student's authoritative counters and
// refreshes the pulse snapshot.
func (s *Service) recomputeStudent(ctx context.Context, studentID string) error {
	// GetOverview recomputes attendance and GPA from raw records and upserts
	// the snapshot as a side effect.
	overview, err := s.studentSvc.GetOverview(ctx, studentID)
	if err != nil {
		return err
	}

	// Counter repair: the marking path bumps these incrementally; the sweep
	// resets them to the recomputed truth.
	summary := overview.Attendance.Overall
	_, err = s.usersCol.UpdateOne(ctx, bson.M{"_id": studentID}, bson.M{"$set": bson.M{
		"stats.total_classes": summary.Total,
		"stats.total_present": summary.Present,
	}})
	return err
}
