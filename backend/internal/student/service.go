// ============================================================================
// backend/internal/student/service.go
// Student dashboard service: academic pulse overview and snapshots
// ============================================================================

package student

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"acadpulse/backend/internal/attendance"
	"acadpulse/backend/internal/engine"
	"acadpulse/backend/internal/filestore"
	"acadpulse/backend/internal/grade"
	"acadpulse/backend/internal/shared"
)

// Service composes the derived academics a student's dashboard shows.
type Service struct {
	db         *mongo.Database
	usersCol   *mongo.Collection
	pulseCol   *mongo.Collection
	store      *filestore.Store // optional offline snapshot mirror
	attendance *attendance.Service
	grades     *grade.Service
}

// NewService creates a new student Service instance. store may be nil, in
// which case no offline snapshots are kept.
func NewService(db *mongo.Database, store *filestore.Store, attendanceSvc *attendance.Service, gradeSvc *grade.Service) *Service {
	return &Service{
		db:         db,
		usersCol:   db.Collection(shared.ColUsers),
		pulseCol:   db.Collection(shared.ColPulse),
		store:      store,
		attendance: attendanceSvc,
		grades:     gradeSvc,
	}
}

// Overview is the academic pulse: everything the dashboard header needs in
// one response.
type Overview struct {
	StudentID  string                  `json:"student_id"`
	Name       string                  `json:"name"`
	Attendance engine.AttendanceReport `json:"attendance"`
	GPA        engine.GPASummary       `json:"gpa"`
	Streak     int                     `json:"streak"`
	BestStreak int                     `json:"best_streak"`
	StreakLive bool                    `json:"streak_live"`
	ComputedAt time.Time               `json:"computed_at"`
}

// GetOverview computes the full academic pulse for one student from raw
// records and refreshes the persisted snapshot.
func (s *Service) GetOverview(ctx context.Context, studentID string) (*Overview, error) {
	if studentID == "" {
		return nil, shared.ErrInvalidArgument("student_id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var user shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": studentID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrNotFound("student not found: %s", studentID)
		}
		return nil, shared.ErrInternal(err, "failed to load student")
	}
	if user.Role != shared.RoleStudent {
		return nil, shared.ErrPermissionDenied("user is not a student")
	}

	attReport, err := s.attendance.StudentSummary(ctx, studentID)
	if err != nil {
		return nil, err
	}

	gpa, err := s.grades.StudentGPA(ctx, studentID)
	if err != nil {
		return nil, err
	}

	state := engine.StreakState{
		CurrentStreak:    user.Stats.Streak,
		BestStreak:       user.Stats.BestStreak,
		LastActivityDate: user.Stats.LastLogin,
	}

	overview := &Overview{
		StudentID:  studentID,
		Name:       user.Name,
		Attendance: *attReport,
		GPA:        gpa,
		Streak:     user.Stats.Streak,
		BestStreak: user.Stats.BestStreak,
		StreakLive: !state.IsBroken(time.Now().UTC()),
		ComputedAt: time.Now(),
	}

	s.storeSnapshot(queryCtx, overview)
	return overview, nil
}

// GetSnapshot returns the last persisted pulse snapshot without recomputing.
// Missing snapshots fall through to a full computation. When the database read
// itself fails, the offline JSON mirror is served instead.
func (s *Service) GetSnapshot(ctx context.Context, studentID string) (*shared.AcademicPulseDoc, error) {
	if studentID == "" {
		return nil, shared.ErrInvalidArgument("student_id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc shared.AcademicPulseDoc
	err := s.pulseCol.FindOne(queryCtx, bson.M{"student_id": studentID}).Decode(&doc)
	if err == nil {
		return &doc, nil
	}
	if err != mongo.ErrNoDocuments {
		if offline, ok := s.readOfflineSnapshot(studentID); ok {
			log.Printf("Warning: serving offline pulse snapshot for %s: %v", studentID, err)
			return offline, nil
		}
		return nil, shared.ErrInternal(err, "failed to load pulse snapshot")
	}

	overview, err := s.GetOverview(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(overview), nil
}

// storeSnapshot upserts the denormalized pulse document. Snapshot failures
// are logged only; the overview itself was computed from raw records.
func (s *Service) storeSnapshot(ctx context.Context, overview *Overview) {
	doc := snapshotOf(overview)

	opts := options.Update().SetUpsert(true)
	_, err := s.pulseCol.UpdateOne(ctx,
		bson.M{"student_id": overview.StudentID},
		bson.M{
			"$set": bson.M{
				"attendance_percentage": doc.AttendancePercentage,
				"total_classes":         doc.TotalClasses,
				"total_present":         doc.TotalPresent,
				"cgpa":                  doc.CGPA,
				"credits_earned":        doc.CreditsEarned,
				"computed_at":           doc.ComputedAt,
			},
			"$setOnInsert": bson.M{
				"_id":        shared.GenerateID("pulse"),
				"student_id": overview.StudentID,
			},
		}, opts)
	if err != nil {
		log.Printf("Warning: failed to store pulse snapshot for %s: %v", overview.StudentID, err)
	}

	s.writeOfflineSnapshot(doc)
}

// writeOfflineSnapshot mirrors the pulse document into the JSON snapshot
// store, keyed by student, so GetSnapshot can still serve dashboards when the
// database read fails.
func (s *Service) writeOfflineSnapshot(doc *shared.AcademicPulseDoc) {
	if s.store == nil {
		return
	}

	snapshots := make(map[string]*shared.AcademicPulseDoc)
	if _, err := s.store.Read(shared.ColPulse, &snapshots); err != nil {
		log.Printf("Warning: offline pulse snapshots unreadable, rebuilding: %v", err)
		snapshots = map[string]*shared.AcademicPulseDoc{}
	}
	snapshots[doc.StudentID] = doc

	if err := s.store.Write(shared.ColPulse, snapshots); err != nil {
		log.Printf("Warning: failed to mirror pulse snapshot for %s: %v", doc.StudentID, err)
	}
}

// readOfflineSnapshot serves the last mirrored pulse document for one student.
func (s *Service) readOfflineSnapshot(studentID string) (*shared.AcademicPulseDoc, bool) {
	if s.store == nil || !s.store.Exists(shared.ColPulse) {
		return nil, false
	}

	snapshots := make(map[string]*shared.AcademicPulseDoc)
	if _, err := s.store.Read(shared.ColPulse, &snapshots); err != nil {
		log.Printf("Warning: offline pulse snapshots unreadable: %v", err)
		return nil, false
	}

	doc, ok := snapshots[studentID]
	return doc, ok
}

func snapshotOf(overview *Overview) *shared.AcademicPulseDoc {
	return &shared.AcademicPulseDoc{
		StudentID:            overview.StudentID,
		AttendancePercentage: overview.Attendance.Overall.Percentage,
		TotalClasses:         overview.Attendance.Overall.Total,
		TotalPresent:         overview.Attendance.Overall.Present,
		CGPA:                 overview.GPA.CGPA,
		CreditsEarned:        overview.GPA.TotalCredits,
		ComputedAt:           overview.ComputedAt,
	}
}
