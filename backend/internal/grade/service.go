// ============================================================================
// backend/internal/grade/service.go
// Grade service: grade lifecycle, component submission, publishing, GPA
// ============================================================================

package grade

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"acadpulse/backend/internal/engine"
	"acadpulse/backend/internal/shared"
)

// Service implements the grade lifecycle: a record is created empty when a
// student enrolls, filled in as component marks arrive, and locked once the
// result is published.
type Service struct {
	db         *mongo.Database
	gradesCol  *mongo.Collection
	coursesCol *mongo.Collection
	usersCol   *mongo.Collection
	auditCol   *mongo.Collection
	grading    engine.Config
}

// NewService creates a new grade Service instance.
func NewService(db *mongo.Database, config *shared.Config) *Service {
	return &Service{
		db:         db,
		gradesCol:  db.Collection(shared.ColGrades),
		coursesCol: db.Collection(shared.ColCourses),
		usersCol:   db.Collection(shared.ColUsers),
		auditCol:   db.Collection(shared.ColAuditLogs),
		grading:    gradingFromConfig(config),
	}
}

// gradingFromConfig builds the engine policy from server configuration. Only
// the passing threshold is tunable; the band table is institutional.
func gradingFromConfig(config *shared.Config) engine.Config {
	grading := engine.DefaultConfig()
	if config != nil && config.Grading.PassingThreshold > 0 {
		grading.PassingThreshold = config.Grading.PassingThreshold
	}
	return grading
}

// GradingPolicy exposes the active grading configuration.
func (s *Service) GradingPolicy() engine.Config {
	return s.grading
}

// ============================================================================
// Lifecycle
// ============================================================================

// CreateForEnrollment opens an empty grade record for a student in a course.
// Idempotent: the unique index on (student_id, course_id) makes a repeat call
// a no-op.
func (s *Service) CreateForEnrollment(ctx context.Context, studentID, courseID, academicYear string) (*shared.GradeDoc, error) {
	if studentID == "" || courseID == "" {
		return nil, shared.ErrInvalidArgument("student_id and course_id are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var course shared.Course
	if err := s.coursesCol.FindOne(queryCtx, bson.M{"_id": courseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrNotFound("course not found: %s", courseID)
		}
		return nil, shared.ErrInternal(err, "failed to load course")
	}

	var student shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": studentID}).Decode(&student); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrNotFound("student not found: %s", studentID)
		}
		return nil, shared.ErrInternal(err, "failed to load student")
	}
	if student.Role != shared.RoleStudent {
		return nil, shared.ErrPermissionDenied("user is not a student")
	}

	now := time.Now()
	filter := bson.M{"student_id": studentID, "course_id": courseID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":           shared.GenerateID("grade"),
			"student_id":    studentID,
			"course_id":     courseID,
			"course_code":   course.Code,
			"semester":      course.Semester,
			"academic_year": academicYear,
			"credits":       course.Credits,
			"letter_grade":  "",
			"created_at":    now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc shared.GradeDoc
	if err := s.gradesCol.FindOneAndUpdate(queryCtx, filter, update, opts).Decode(&doc); err != nil {
		return nil, shared.ErrInternal(err, "failed to create grade record")
	}
	return &doc, nil
}

// SubmitComponentsRequest carries one component-mark submission.
type SubmitComponentsRequest struct {
	StudentID      string  `json:"student_id"`
	CourseID       string  `json:"course_id"`
	InternalMarks  float64 `json:"internal_marks"`
	ExternalMarks  float64 `json:"external_marks"`
	PracticalMarks float64 `json:"practical_marks"`
	Feedback       string  `json:"feedback,omitempty"`
	FacultyID      string  `json:"-"`
}

// SubmitComponents records the three component marks for a student's course
// grade and derives the totals, letter grade, and grade points. Published
// grades reject further submission.
func (s *Service) SubmitComponents(ctx context.Context, req SubmitComponentsRequest) (*shared.GradeDoc, error) {
	if req.StudentID == "" || req.CourseID == "" || req.FacultyID == "" {
		return nil, shared.ErrInvalidArgument("student_id, course_id, and faculty are required")
	}
	if err := validateComponentBounds(req); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.validateFacultyForCourse(queryCtx, req.CourseID, req.FacultyID); err != nil {
		return nil, err
	}

	var doc shared.GradeDoc
	filter := bson.M{"student_id": req.StudentID, "course_id": req.CourseID}
	if err := s.gradesCol.FindOne(queryCtx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, shared.ErrNotFound("no grade record; student is not enrolled")
		}
		return nil, shared.ErrInternal(err, "failed to load grade record")
	}
	if doc.IsFinalized() {
		return nil, shared.ErrFailedPrecondition("result already published; grade is immutable")
	}

	result := engine.ComputeGrade(engine.GradeComponents{
		InternalMarks:  req.InternalMarks,
		ExternalMarks:  req.ExternalMarks,
		PracticalMarks: req.PracticalMarks,
	}, s.grading)

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"internal_marks":     req.InternalMarks,
		"external_marks":     req.ExternalMarks,
		"practical_marks":    req.PracticalMarks,
		"total_marks":        result.TotalMarks,
		"total_marks_capped": result.TotalMarksCapped,
		"percentage":         result.Percentage,
		"letter_grade":       result.LetterGrade,
		"grade_points":       result.GradePoints,
		"is_pass":            result.IsPass,
		"teacher_feedback":   req.Feedback,
		"last_modified_by":   req.FacultyID,
		"updated_at":         now,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.gradesCol.FindOneAndUpdate(queryCtx, filter, update, opts).Decode(&doc); err != nil {
		return nil, shared.ErrInternal(err, "failed to update grade record")
	}

	_ = shared.LogAuditEvent(ctx, s.auditCol, req.FacultyID, shared.ActionGradeSubmit,
		"grade:"+doc.ID,
		map[string]interface{}{"student_id": req.StudentID, "course_id": req.CourseID})

	return &doc, nil
}

func validateComponentBounds(req SubmitComponentsRequest) error {
	if req.InternalMarks < 0 || req.InternalMarks > shared.MaxInternalMarks {
		return shared.ErrInvalidArgument("internal_marks must be in [0,%d]", shared.MaxInternalMarks)
	}
	if req.ExternalMarks < 0 || req.ExternalMarks > shared.MaxExternalMarks {
		return shared.ErrInvalidArgument("external_marks must be in [0,%d]", shared.MaxExternalMarks)
	}
	if req.PracticalMarks < 0 || req.PracticalMarks > shared.MaxPracticalMarks {
		return shared.ErrInvalidArgument("practical_marks must be in [0,%d]", shared.MaxPracticalMarks)
	}
	return nil
}

// AddAssessment appends one assignment or project score to an open grade
// record.
func (s *Service) AddAssessment(ctx context.Context, studentID, courseID, kind string, score shared.AssessmentScore, facultyID string) error {
	if studentID == "" || courseID == "" || score.Name == "" {
		return shared.ErrInvalidArgument("student_id, course_id, and score name are required")
	}

	var field string
	switch kind {
	case "assignment":
		field = "assignment_scores"
	case "project":
		field = "project_scores"
	default:
		return shared.ErrInvalidArgument("kind must be assignment or project")
	}

	if score.TotalMarks <= 0 || score.MarksObtained < 0 || score.MarksObtained > score.TotalMarks {
		return shared.ErrInvalidArgument("marks_obtained must be in [0,total_marks]")
	}
	score.Percentage = score.MarksObtained / score.TotalMarks * 100
	if score.SubmittedDate.IsZero() {
		score.SubmittedDate = time.Now()
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.validateFacultyForCourse(queryCtx, courseID, facultyID); err != nil {
		return err
	}

	filter := bson.M{
		"student_id": studentID,
		"course_id":  courseID,
		// Published grades are immutable
		"result_published_date": bson.M{"$in": []interface{}{nil, time.Time{}}},
	}
	update := bson.M{
		"$push": bson.M{field: score},
		"$set":  bson.M{"updated_at": time.Now(), "last_modified_by": facultyID},
	}

	result, err := s.gradesCol.UpdateOne(queryCtx, filter, update)
	if err != nil {
		return shared.ErrInternal(err, "failed to add assessment score")
	}
	if result.MatchedCount == 0 {
		return shared.ErrFailedPrecondition("grade record missing or already published")
	}
	return nil
}

// Publish sets the result-published date on every unpublished grade in a
// course, making them visible to students and immutable.
func (s *Service) Publish(ctx context.Context, courseID, facultyID string) (int64, error) {
	if courseID == "" || facultyID == "" {
		return 0, shared.ErrInvalidArgument("course_id and faculty are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.validateFacultyForCourse(queryCtx, courseID, facultyID); err != nil {
		return 0, err
	}

	filter := bson.M{
		"course_id":             courseID,
		"result_published_date": bson.M{"$in": []interface{}{nil, time.Time{}}},
	}
	update := bson.M{"$set": bson.M{
		"result_published_date": time.Now(),
		"last_modified_by":      facultyID,
		"updated_at":            time.Now(),
	}}

	result, err := s.gradesCol.UpdateMany(queryCtx, filter, update)
	if err != nil {
		return 0, shared.ErrInternal(err, "failed to publish grades")
	}

	_ = shared.LogAuditEvent(ctx, s.auditCol, facultyID, shared.ActionGradePublish,
		"course:"+courseID,
		map[string]interface{}{"published": result.ModifiedCount})

	log.Printf("[grade] published %d grades for course %s", result.ModifiedCount, courseID)
	return result.ModifiedCount, nil
}

// ============================================================================
// Queries
// ============================================================================

// StudentGrades returns a student's grade records plus the GPA rollup.
// Students see only published results; faculty and admin callers pass
// includeUnpublished.
func (s *Service) StudentGrades(ctx context.Context, studentID, semester string, includeUnpublished bool) ([]shared.GradeDoc, engine.GPASummary, error) {
	if studentID == "" {
		return nil, engine.GPASummary{}, shared.ErrInvalidArgument("student_id is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"student_id": studentID}
	if !includeUnpublished {
		filter["result_published_date"] = bson.M{"$nin": []interface{}{nil, time.Time{}}}
	}
	if semester != "" {
		if !shared.IsValidSemester(semester) {
			return nil, engine.GPASummary{}, shared.ErrInvalidArgument("invalid semester: %s", semester)
		}
		filter["semester"] = semester
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "semester", Value: 1}, {Key: "course_code", Value: 1}}).
		SetLimit(200)

	cursor, err := s.gradesCol.Find(queryCtx, filter, findOptions)
	if err != nil {
		return nil, engine.GPASummary{}, shared.ErrInternal(err, "failed to query grades")
	}
	defer cursor.Close(queryCtx)

	var docs []shared.GradeDoc
	if err := cursor.All(queryCtx, &docs); err != nil {
		return nil, engine.GPASummary{}, shared.ErrInternal(err, "failed to decode grades")
	}

	// GPA counts published results only, regardless of view
	gpa := engine.ComputeGPA(publishedCourseGrades(docs))
	return docs, gpa, nil
}

// CourseGrades returns every grade record in a course for its faculty.
func (s *Service) CourseGrades(ctx context.Context, courseID, facultyID string) ([]shared.GradeDoc, error) {
	if courseID == "" || facultyID == "" {
		return nil, shared.ErrInvalidArgument("course_id and faculty are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.validateFacultyForCourse(queryCtx, courseID, facultyID); err != nil {
		return nil, err
	}

	cursor, err := s.gradesCol.Find(queryCtx, bson.M{"course_id": courseID},
		shared.BuildFindOptions(500, "student_id", 1))
	if err != nil {
		return nil, shared.ErrInternal(err, "failed to query grades")
	}
	defer cursor.Close(queryCtx)

	var docs []shared.GradeDoc
	if err := cursor.All(queryCtx, &docs); err != nil {
		return nil, shared.ErrInternal(err, "failed to decode grades")
	}
	return docs, nil
}

// StudentGPA computes the GPA rollup alone.
func (s *Service) StudentGPA(ctx context.Context, studentID string) (engine.GPASummary, error) {
	_, gpa, err := s.StudentGrades(ctx, studentID, "", true)
	return gpa, err
}

// publishedCourseGrades converts published grade documents to engine inputs.
func publishedCourseGrades(docs []shared.GradeDoc) []engine.CourseGrade {
	var out []engine.CourseGrade
	for _, doc := range docs {
		if !doc.IsFinalized() {
			continue
		}
		out = append(out, engine.CourseGrade{
			CourseID:    doc.CourseID,
			Semester:    doc.Semester,
			Credits:     doc.Credits,
			GradePoints: doc.GradePoints,
		})
	}
	return out
}

// ============================================================================
// Helpers
// ============================================================================

func (s *Service) validateFacultyForCourse(ctx context.Context, courseID, facultyID string) error {
	var faculty shared.User
	if err := s.usersCol.FindOne(ctx, bson.M{"_id": facultyID}).Decode(&faculty); err != nil {
		return shared.ErrNotFound("faculty not found: %s", facultyID)
	}
	if faculty.Role != shared.RoleFaculty && faculty.Role != shared.RoleAdmin {
		return shared.ErrPermissionDenied("user is not faculty")
	}

	var course shared.Course
	if err := s.coursesCol.FindOne(ctx, bson.M{"_id": courseID}).Decode(&course); err != nil {
		return shared.ErrNotFound("course not found: %s", courseID)
	}
	if faculty.Role == shared.RoleFaculty && course.FacultyID != facultyID {
		return shared.ErrPermissionDenied("course %s is not taught by %s", courseID, facultyID)
	}
	return nil
}

// Recompute rebuilds the derived fields of one grade document from its stored
// components. Used by the recompute job after policy changes.
func (s *Service) Recompute(ctx context.Context, gradeID string) error {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc shared.GradeDoc
	if err := s.gradesCol.FindOne(queryCtx, bson.M{"_id": gradeID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return shared.ErrNotFound("grade not found: %s", gradeID)
		}
		return shared.ErrInternal(err, "failed to load grade")
	}

	result := engine.ComputeGrade(engine.GradeComponents{
		InternalMarks:  doc.InternalMarks,
		ExternalMarks:  doc.ExternalMarks,
		PracticalMarks: doc.PracticalMarks,
	}, s.grading)

	_, err := s.gradesCol.UpdateOne(queryCtx, bson.M{"_id": gradeID}, bson.M{"$set": bson.M{
		"total_marks":        result.TotalMarks,
		"total_marks_capped": result.TotalMarksCapped,
		"percentage":         result.Percentage,
		"letter_grade":       result.LetterGrade,
		"grade_points":       result.GradePoints,
		"is_pass":            result.IsPass,
		"updated_at":         time.Now(),
	}})
	if err != nil {
		return shared.ErrInternal(err, "failed to store recomputed grade")
	}

	return nil
}
