// ============================================================================
// backend/internal/engine/attendance.go
// Attendance percentage and per-subject breakdown computation
// ============================================================================

package engine

import (
	"math"
)

// recordKey identifies the at-most-one-record-per invariant scope:
// one student, one subject, one calendar date.
type recordKey struct {
	studentID string
	subject   string
	date      int64 // unix seconds of UTC midnight
}

// ComputeAttendance computes the attendance summary over a set of records
// already filtered to the desired scope (one student, one class, one date
// range - filtering is the caller's responsibility).
//
// Duplicate records for the same (studentID, subject, date) are merged
// last-write-wins by MarkedAt rather than double-counted; on a MarkedAt tie a
// Present record wins, so the result is independent of input order. A record
// missing a scope key fails the whole batch with MalformedRecordError.
//
// An empty input yields a well-defined zero summary, not an error.
func ComputeAttendance(records []AttendanceRecord) (AttendanceSummary, error) {
	deduped, err := dedupeRecords(records)
	if err != nil {
		return AttendanceSummary{}, err
	}
	return summarize(deduped), nil
}

// ComputeSubjectBreakdown groups records by subject and computes a summary per
// group. The per-subject totals always sum to the deduplicated record count:
// no record is dropped and none is counted twice.
func ComputeSubjectBreakdown(records []AttendanceRecord) (map[string]AttendanceSummary, error) {
	deduped, err := dedupeRecords(records)
	if err != nil {
		return nil, err
	}

	bySubject := make(map[string][]AttendanceRecord)
	for _, rec := range deduped {
		bySubject[rec.Subject] = append(bySubject[rec.Subject], rec)
	}

	result := make(map[string]AttendanceSummary, len(bySubject))
	for subject, recs := range bySubject {
		result[subject] = summarize(recs)
	}
	return result, nil
}

// summarize counts presence over already-deduplicated records.
// Percentage is rounded half-up: 1 present out of 3 displays as 33, not 34.
func summarize(records []AttendanceRecord) AttendanceSummary {
	total := len(records)
	present := 0
	for _, rec := range records {
		if rec.Status == StatusPresent {
			present++
		}
	}

	percentage := 0
	if total > 0 {
		percentage = roundHalfUp(float64(present) / float64(total) * 100)
	}

	return AttendanceSummary{
		Present:    present,
		Total:      total,
		Percentage: percentage,
	}
}

// dedupeRecords validates scope keys and merges duplicates last-write-wins.
func dedupeRecords(records []AttendanceRecord) ([]AttendanceRecord, error) {
	if err := validateRecords(records); err != nil {
		return nil, err
	}

	seen := make(map[recordKey]AttendanceRecord, len(records))
	for _, rec := range records {
		key := recordKey{
			studentID: rec.StudentID,
			subject:   rec.Subject,
			date:      DateOf(rec.Date).Unix(),
		}

		prev, exists := seen[key]
		if !exists {
			seen[key] = rec
			continue
		}

		// Last write wins; a Present record breaks a MarkedAt tie so the
		// outcome does not depend on input order.
		if rec.MarkedAt.After(prev.MarkedAt) {
			seen[key] = rec
		} else if rec.MarkedAt.Equal(prev.MarkedAt) && rec.Status == StatusPresent {
			seen[key] = rec
		}
	}

	result := make([]AttendanceRecord, 0, len(seen))
	for _, rec := range seen {
		result = append(result, rec)
	}
	return result, nil
}

// validateRecords fails fast on the first record missing a required scope key.
func validateRecords(records []AttendanceRecord) error {
	for i, rec := range records {
		switch {
		case rec.StudentID == "":
			return &MalformedRecordError{Index: i, Field: "studentId"}
		case rec.Subject == "":
			return &MalformedRecordError{Index: i, Field: "subject"}
		case rec.Date.IsZero():
			return &MalformedRecordError{Index: i, Field: "date"}
		case !IsValidStatus(rec.Status):
			return &MalformedRecordError{Index: i, Field: "status"}
		}
	}
	return nil
}

// roundHalfUp rounds a non-negative value to the nearest integer, halves up.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
