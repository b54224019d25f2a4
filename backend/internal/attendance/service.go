// ============================================================================
// backend/internal/attendance/service.go
// Attendance service: marking sessions, queries, engine-backed summaries
// ============================================================================

package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"acadpulse/backend/internal/engine"
	"acadpulse/backend/internal/shared"
)

// Service implements attendance marking and reporting.
type Service struct {
	db            *mongo.Database
	attendanceCol *mongo.Collection
	usersCol      *mongo.Collection
	auditCol      *mongo.Collection
}

// NewService creates a new attendance Service instance.
func NewService(db *mongo.Database) *Service {
	return &Service{
		db:            db,
		attendanceCol: db.Collection(shared.ColAttendance),
		usersCol:      db.Collection(shared.ColUsers),
		auditCol:      db.Collection(shared.ColAuditLogs),
	}
}

// MarkEntry is one student's status within a marking session.
type MarkEntry struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	Remarks   string `json:"remarks,omitempty"`
}

// MarkSessionRequest marks attendance for one class session: one subject, one
// section, one date, many students.
type MarkSessionRequest struct {
	Subject   string      `json:"subject"`
	Section   string      `json:"section"`
	Branch    string      `json:"branch"`
	Year      string      `json:"year"`
	Date      time.Time   `json:"date"`
	FacultyID string      `json:"-"`
	Entries   []MarkEntry `json:"entries"`
}

// MarkSessionResult reports what a marking session did.
type MarkSessionResult struct {
	Date      time.Time `json:"date"`
	Marked    int       `json:"marked"`
	Corrected int       `json:"corrected"`
	Failed    int       `json:"failed"`
	Errors    []string  `json:"errors,omitempty"`
}

// MarkSession upserts one attendance record per entry. The unique index on
// (student_id, subject, date) makes re-marking a correction, never a
// duplicate. Per-entry failures do not abort the session.
func (s *Service) MarkSession(ctx context.Context, req MarkSessionRequest) (*MarkSessionResult, error) {
	if req.Subject == "" || req.Section == "" || req.FacultyID == "" {
		return nil, shared.ErrInvalidArgument("subject, section, and faculty are required")
	}
	if req.Date.IsZero() {
		return nil, shared.ErrInvalidArgument("session date is required")
	}
	if len(req.Entries) == 0 {
		return nil, shared.ErrInvalidArgument("at least one entry is required")
	}
	for i, entry := range req.Entries {
		if entry.StudentID == "" {
			return nil, shared.ErrInvalidArgument("entry %d: student_id is required", i)
		}
		if !engine.IsValidStatus(engine.Status(entry.Status)) {
			return nil, shared.ErrInvalidArgument("entry %d: unknown status %q", i, entry.Status)
		}
	}

	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	day := engine.DateOf(req.Date)
	now := time.Now()
	result := &MarkSessionResult{Date: day}

	for _, entry := range req.Entries {
		corrected, err := s.upsertRecord(queryCtx, req, entry, day, now)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("student %s: %v", entry.StudentID, err))
			continue
		}
		result.Marked++
		if corrected {
			result.Corrected++
		}
	}

	_ = shared.LogAuditEvent(ctx, s.auditCol, req.FacultyID, shared.ActionAttendanceMark,
		fmt.Sprintf("attendance:%s:%s", req.Subject, day.Format("2006-01-02")),
		map[string]interface{}{
			"section": req.Section,
			"marked":  result.Marked,
			"failed":  result.Failed,
		})

	return result, nil
}

// upsertRecord writes one (student, subject, date) slot and keeps the
// student's denormalized counters in step. Returns whether an existing record
// was corrected.
func (s *Service) upsertRecord(ctx context.Context, req MarkSessionRequest, entry MarkEntry, day, now time.Time) (bool, error) {
	filter := bson.M{
		"student_id": entry.StudentID,
		"subject":    req.Subject,
		"date":       day,
	}

	update := bson.M{
		"$set": bson.M{
			"status":     entry.Status,
			"remarks":    entry.Remarks,
			"section":    req.Section,
			"branch":     req.Branch,
			"year":       req.Year,
			"faculty_id": req.FacultyID,
			"marked_at":  now,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        shared.GenerateID("att"),
			"student_id": entry.StudentID,
			"subject":    req.Subject,
			"date":       day,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var previous shared.AttendanceDoc
	err := s.attendanceCol.FindOneAndUpdate(ctx, filter, update, opts).Decode(&previous)
	if err == mongo.ErrNoDocuments {
		// Fresh insert: bump the student's counters
		s.bumpStats(ctx, entry.StudentID, 1, presentDelta("", entry.Status))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Correction: total classes unchanged, present count may shift
	if delta := presentDelta(previous.Status, entry.Status); delta != 0 {
		s.bumpStats(ctx, entry.StudentID, 0, delta)
	}
	return true, nil
}

// presentDelta is the change in the present counter when a slot moves from
// one status to another.
func presentDelta(oldStatus, newStatus string) int {
	delta := 0
	if engine.Status(oldStatus) == engine.StatusPresent {
		delta--
	}
	if engine.Status(newStatus) == engine.StatusPresent {
		delta++
	}
	return delta
}

// bumpStats adjusts the denormalized counters. Failures are logged only; the
// recompute job restores the authoritative values.
func (s *Service) bumpStats(ctx context.Context, studentID string, classesDelta, presentDelta int) {
	if classesDelta == 0 && presentDelta == 0 {
		return
	}
	_, err := s.usersCol.UpdateOne(ctx, bson.M{"_id": studentID}, bson.M{
		"$inc": bson.M{
			"stats.total_classes": classesDelta,
			"stats.total_present": presentDelta,
		},
	})
	if err != nil {
		log.Printf("Warning: failed to bump stats for %s: %v", studentID, err)
	}
}

// ============================================================================
// Queries
// ============================================================================

// RecordQuery filters attendance record lookups.
type RecordQuery struct {
	StudentID string
	Subject   string
	Section   string
	Branch    string
	Year      string
	From      time.Time
	To        time.Time
	Limit     int64
}

// GetRecords returns raw attendance records matching the query, newest first.
func (s *Service) GetRecords(ctx context.Context, q RecordQuery) ([]shared.AttendanceDoc, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := q.toFilter()

	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	cursor, err := s.attendanceCol.Find(queryCtx, filter, shared.BuildFindOptions(limit, "date", -1))
	if err != nil {
		return nil, shared.ErrInternal(err, "failed to query attendance")
	}
	defer cursor.Close(queryCtx)

	var records []shared.AttendanceDoc
	if err := cursor.All(queryCtx, &records); err != nil {
		return nil, shared.ErrInternal(err, "failed to decode attendance records")
	}
	return records, nil
}

func (q RecordQuery) toFilter() bson.M {
	filter := bson.M{}
	if q.StudentID != "" {
		filter["student_id"] = q.StudentID
	}
	if q.Subject != "" {
		filter["subject"] = q.Subject
	}
	if q.Section != "" {
		filter["section"] = q.Section
	}
	if q.Branch != "" {
		filter["branch"] = q.Branch
	}
	if q.Year != "" {
		filter["year"] = q.Year
	}
	dateFilter := bson.M{}
	if !q.From.IsZero() {
		dateFilter["$gte"] = engine.DateOf(q.From)
	}
	if !q.To.IsZero() {
		dateFilter["$lte"] = engine.DateOf(q.To)
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}
	return filter
}

// StudentSummary computes the overall and per-subject attendance for one
// student from raw records.
func (s *Service) StudentSummary(ctx context.Context, studentID string) (*engine.AttendanceReport, error) {
	if studentID == "" {
		return nil, shared.ErrInvalidArgument("student_id is required")
	}

	records, err := s.loadEngineRecords(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return nil, err
	}

	overall, err := engine.ComputeAttendance(records)
	if err != nil {
		return nil, shared.ErrInternal(err, "attendance computation failed")
	}
	subjects, err := engine.ComputeSubjectBreakdown(records)
	if err != nil {
		return nil, shared.ErrInternal(err, "subject breakdown failed")
	}

	report := engine.BuildAttendanceReport("student "+studentID, overall, subjects)
	return &report, nil
}

// SectionSummary computes the aggregate attendance for one section of one
// subject, plus the per-student percentages faculty dashboards show.
func (s *Service) SectionSummary(ctx context.Context, subject, section, branch, year string) (*SectionReport, error) {
	if subject == "" || section == "" {
		return nil, shared.ErrInvalidArgument("subject and section are required")
	}

	filter := bson.M{"subject": subject, "section": section}
	if branch != "" {
		filter["branch"] = branch
	}
	if year != "" {
		filter["year"] = year
	}

	records, err := s.loadEngineRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	overall, err := engine.ComputeAttendance(records)
	if err != nil {
		return nil, shared.ErrInternal(err, "attendance computation failed")
	}

	// Per-student split computed from the same record set
	byStudent := make(map[string][]engine.AttendanceRecord)
	for _, rec := range records {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}

	report := &SectionReport{
		Subject:  subject,
		Section:  section,
		Overall:  overall,
		Students: make(map[string]engine.AttendanceSummary, len(byStudent)),
	}
	for studentID, recs := range byStudent {
		summary, err := engine.ComputeAttendance(recs)
		if err != nil {
			return nil, shared.ErrInternal(err, "attendance computation failed")
		}
		report.Students[studentID] = summary
	}
	return report, nil
}

// SectionReport is the faculty view of one section's attendance.
type SectionReport struct {
	Subject  string                              `json:"subject"`
	Section  string                              `json:"section"`
	Overall  engine.AttendanceSummary            `json:"overall"`
	Students map[string]engine.AttendanceSummary `json:"students"`
}

// loadEngineRecords fetches attendance documents and converts them to engine
// records.
func (s *Service) loadEngineRecords(ctx context.Context, filter bson.M) ([]engine.AttendanceRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cursor, err := s.attendanceCol.Find(queryCtx, filter)
	if err != nil {
		return nil, shared.ErrInternal(err, "failed to query attendance")
	}
	defer cursor.Close(queryCtx)

	var records []engine.AttendanceRecord
	for cursor.Next(queryCtx) {
		var doc shared.AttendanceDoc
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		records = append(records, docToEngineRecord(doc))
	}
	return records, nil
}

func docToEngineRecord(doc shared.AttendanceDoc) engine.AttendanceRecord {
	return engine.AttendanceRecord{
		Date:      doc.Date,
		StudentID: doc.StudentID,
		Subject:   doc.Subject,
		Section:   doc.Section,
		Branch:    doc.Branch,
		Year:      doc.Year,
		Status:    engine.Status(doc.Status),
		MarkedAt:  doc.MarkedAt,
	}
}

// ============================================================================
// Cleanup
// ============================================================================

// Cleanup deletes attendance records for one subject in a date range and
// rolls the affected students' counters back. Admin only; the caller has
// already checked the role.
func (s *Service) Cleanup(ctx context.Context, adminID, subject string, from, to time.Time) (int64, error) {
	if subject == "" {
		return 0, shared.ErrInvalidArgument("subject is required")
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0, shared.ErrInvalidArgument("a valid date range is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	filter := bson.M{
		"subject": subject,
		"date": bson.M{
			"$gte": engine.DateOf(from),
			"$lte": engine.DateOf(to),
		},
	}

	// Collect the records first so the counters can be rolled back
	cursor, err := s.attendanceCol.Find(queryCtx, filter)
	if err != nil {
		return 0, shared.ErrInternal(err, "failed to query attendance")
	}
	var docs []shared.AttendanceDoc
	if err := cursor.All(queryCtx, &docs); err != nil {
		return 0, shared.ErrInternal(err, "failed to decode attendance records")
	}
	if len(docs) == 0 {
		return 0, nil
	}

	// Delete by the collected IDs, not by re-running the filter: a record
	// marked between the read and the delete must keep its counters
	result, err := s.attendanceCol.DeleteMany(queryCtx, bson.M{"_id": bson.M{"$in": docIDs(docs)}})
	if err != nil {
		return 0, shared.ErrInternal(err, "failed to delete attendance records")
	}

	for _, doc := range docs {
		s.bumpStats(queryCtx, doc.StudentID, -1, -presentDelta("", doc.Status))
	}

	_ = shared.LogAuditEvent(ctx, s.auditCol, adminID, shared.ActionAttendanceCleanup,
		"attendance:"+subject,
		map[string]interface{}{
			"from":    from.Format("2006-01-02"),
			"to":      to.Format("2006-01-02"),
			"deleted": result.DeletedCount,
		})

	return result.DeletedCount, nil
}

// docIDs extracts the _ids of the records a cleanup sweep collected; the
// delete is scoped to exactly these so counter rollbacks stay in step.
func docIDs(docs []shared.AttendanceDoc) []string {
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids
}
