package engine

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

// fixed dates only; engine date logic must never be tested against time.Now()
var (
	day1 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	day3 = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
)

func rec(studentID, subject string, date time.Time, status Status) AttendanceRecord {
	return AttendanceRecord{
		Date:      date,
		StudentID: studentID,
		Subject:   subject,
		Section:   "A",
		Branch:    "CSE",
		Year:      "2",
		Status:    status,
		MarkedAt:  date.Add(9 * time.Hour),
	}
}

func TestComputeAttendance(t *testing.T) {
	t.Run("Empty Input", func(t *testing.T) {
		summary, err := ComputeAttendance(nil)
		if err != nil {
			t.Fatalf("ComputeAttendance(nil) returned error: %v", err)
		}
		if summary.Present != 0 || summary.Total != 0 || summary.Percentage != 0 {
			t.Errorf("Expected zero summary, got %+v", summary)
		}
	})

	t.Run("Basic Percentage", func(t *testing.T) {
		records := []AttendanceRecord{
			rec("s1", "Maths", day1, StatusPresent),
			rec("s1", "Maths", day2, StatusPresent),
			rec("s1", "Maths", day3, StatusAbsent),
			rec("s1", "Physics", day1, StatusAbsent),
		}
		summary, err := ComputeAttendance(records)
		if err != nil {
			t.Fatalf("ComputeAttendance failed: %v", err)
		}
		if summary.Total != 4 || summary.Present != 2 {
			t.Errorf("Expected 2/4, got %d/%d", summary.Present, summary.Total)
		}
		if summary.Percentage != 50 {
			t.Errorf("Expected 50%%, got %d%%", summary.Percentage)
		}
	})

	t.Run("Rounding Half Up", func(t *testing.T) {
		// 1 present out of 3: round(33.33) = 33, not 34
		records := []AttendanceRecord{
			rec("s1", "Maths", day1, StatusPresent),
			rec("s1", "Maths", day2, StatusAbsent),
			rec("s1", "Maths", day3, StatusAbsent),
		}
		summary, err := ComputeAttendance(records)
		if err != nil {
			t.Fatalf("ComputeAttendance failed: %v", err)
		}
		if summary.Percentage != 33 {
			t.Errorf("Expected 33%%, got %d%%", summary.Percentage)
		}

		// 2 present out of 3: round(66.67) = 67
		records[1].Status = StatusPresent
		summary, _ = ComputeAttendance(records)
		if summary.Percentage != 67 {
			t.Errorf("Expected 67%%, got %d%%", summary.Percentage)
		}

		// 1 present out of 8: round(12.5) = 13 (halves round up)
		var half []AttendanceRecord
		for i := 0; i < 8; i++ {
			status := StatusAbsent
			if i == 0 {
				status = StatusPresent
			}
			half = append(half, rec("s1", "Maths", day1.AddDate(0, 0, i), status))
		}
		summary, _ = ComputeAttendance(half)
		if summary.Percentage != 13 {
			t.Errorf("Expected 13%% for 1/8, got %d%%", summary.Percentage)
		}
	})

	t.Run("Order Independence", func(t *testing.T) {
		records := []AttendanceRecord{
			rec("s1", "Maths", day1, StatusPresent),
			rec("s1", "Maths", day2, StatusAbsent),
			rec("s1", "Physics", day1, StatusLate),
			rec("s1", "Physics", day2, StatusPresent),
			rec("s1", "Chemistry", day3, StatusLeave),
		}
		want, err := ComputeAttendance(records)
		if err != nil {
			t.Fatalf("ComputeAttendance failed: %v", err)
		}

		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 10; i++ {
			shuffled := make([]AttendanceRecord, len(records))
			copy(shuffled, records)
			rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})

			got, err := ComputeAttendance(shuffled)
			if err != nil {
				t.Fatalf("ComputeAttendance failed on permutation: %v", err)
			}
			if got != want {
				t.Fatalf("Permutation changed result: want %+v, got %+v", want, got)
			}
		}
	})

	t.Run("Only Present Counts", func(t *testing.T) {
		records := []AttendanceRecord{
			rec("s1", "Maths", day1, StatusPresent),
			rec("s1", "Maths", day2, StatusLate),
			rec("s1", "Maths", day3, StatusLeave),
		}
		summary, _ := ComputeAttendance(records)
		if summary.Present != 1 || summary.Total != 3 {
			t.Errorf("Late/Leave must not count as present: got %d/%d", summary.Present, summary.Total)
		}
	})
}

func TestComputeAttendanceDuplicates(t *testing.T) {
	t.Run("Last Write Wins", func(t *testing.T) {
		original := rec("s1", "Maths", day1, StatusAbsent)
		correction := rec("s1", "Maths", day1, StatusPresent)
		correction.MarkedAt = original.MarkedAt.Add(2 * time.Hour)

		summary, err := ComputeAttendance([]AttendanceRecord{original, correction})
		if err != nil {
			t.Fatalf("ComputeAttendance failed: %v", err)
		}
		if summary.Total != 1 {
			t.Fatalf("Duplicate was double-counted: total = %d", summary.Total)
		}
		if summary.Present != 1 {
			t.Errorf("Correction did not win: present = %d", summary.Present)
		}

		// Same outcome with the pair reversed
		summary, _ = ComputeAttendance([]AttendanceRecord{correction, original})
		if summary.Total != 1 || summary.Present != 1 {
			t.Errorf("Reversed duplicate order changed result: %+v", summary)
		}
	})

	t.Run("MarkedAt Tie Prefers Present", func(t *testing.T) {
		a := rec("s1", "Maths", day1, StatusAbsent)
		p := rec("s1", "Maths", day1, StatusPresent)
		p.MarkedAt = a.MarkedAt

		forward, _ := ComputeAttendance([]AttendanceRecord{a, p})
		backward, _ := ComputeAttendance([]AttendanceRecord{p, a})
		if forward != backward {
			t.Fatalf("Tie handling is order-dependent: %+v vs %+v", forward, backward)
		}
		if forward.Present != 1 {
			t.Errorf("Expected Present to win the tie, got %+v", forward)
		}
	})

	t.Run("Same Student Different Subjects Not Merged", func(t *testing.T) {
		records := []AttendanceRecord{
			rec("s1", "Maths", day1, StatusPresent),
			rec("s1", "Physics", day1, StatusPresent),
		}
		summary, _ := ComputeAttendance(records)
		if summary.Total != 2 {
			t.Errorf("Distinct subjects merged: total = %d", summary.Total)
		}
	})
}

func TestComputeAttendanceMalformed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AttendanceRecord)
		field  string
	}{
		{"Missing StudentID", func(r *AttendanceRecord) { r.StudentID = "" }, "studentId"},
		{"Missing Subject", func(r *AttendanceRecord) { r.Subject = "" }, "subject"},
		{"Zero Date", func(r *AttendanceRecord) { r.Date = time.Time{} }, "date"},
		{"Bad Status", func(r *AttendanceRecord) { r.Status = "Sleeping" }, "status"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records := []AttendanceRecord{
				rec("s1", "Maths", day1, StatusPresent),
				rec("s2", "Maths", day1, StatusPresent),
			}
			tc.mutate(&records[1])

			_, err := ComputeAttendance(records)
			if err == nil {
				t.Fatal("Expected MalformedRecordError, got nil")
			}

			var malformed *MalformedRecordError
			if !errors.As(err, &malformed) {
				t.Fatalf("Expected MalformedRecordError, got %T", err)
			}
			if malformed.Index != 1 || malformed.Field != tc.field {
				t.Errorf("Expected index 1 field %q, got index %d field %q",
					tc.field, malformed.Index, malformed.Field)
			}
		})
	}
}

func TestComputeSubjectBreakdown(t *testing.T) {
	records := []AttendanceRecord{
		rec("s1", "Maths", day1, StatusPresent),
		rec("s1", "Maths", day2, StatusAbsent),
		rec("s1", "Maths", day3, StatusPresent),
		rec("s1", "Physics", day1, StatusPresent),
		rec("s1", "Physics", day2, StatusPresent),
		rec("s1", "Chemistry", day1, StatusAbsent),
	}

	breakdown, err := ComputeSubjectBreakdown(records)
	if err != nil {
		t.Fatalf("ComputeSubjectBreakdown failed: %v", err)
	}

	if len(breakdown) != 3 {
		t.Fatalf("Expected 3 subjects, got %d", len(breakdown))
	}

	if got := breakdown["Maths"]; got.Present != 2 || got.Total != 3 || got.Percentage != 67 {
		t.Errorf("Maths: expected 2/3 = 67%%, got %+v", got)
	}
	if got := breakdown["Physics"]; got.Present != 2 || got.Total != 2 || got.Percentage != 100 {
		t.Errorf("Physics: expected 2/2 = 100%%, got %+v", got)
	}
	if got := breakdown["Chemistry"]; got.Present != 0 || got.Total != 1 || got.Percentage != 0 {
		t.Errorf("Chemistry: expected 0/1 = 0%%, got %+v", got)
	}

	// Conservation: per-subject totals must sum to the record count
	sum := 0
	for _, s := range breakdown {
		sum += s.Total
	}
	if sum != len(records) {
		t.Errorf("Conservation violated: subject totals sum to %d, expected %d", sum, len(records))
	}
}

func TestComputeSubjectBreakdownEmpty(t *testing.T) {
	breakdown, err := ComputeSubjectBreakdown(nil)
	if err != nil {
		t.Fatalf("ComputeSubjectBreakdown(nil) returned error: %v", err)
	}
	if len(breakdown) != 0 {
		t.Errorf("Expected empty breakdown, got %d entries", len(breakdown))
	}
}
