package attendance

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"acadpulse/backend/internal/engine"
	"acadpulse/backend/internal/shared"
)

func TestPresentDelta(t *testing.T) {
	cases := []struct {
		old, new string
		want     int
	}{
		{"", "Present", 1},
		{"", "Absent", 0},
		{"Present", "Absent", -1},
		{"Absent", "Present", 1},
		{"Present", "Present", 0},
		{"Absent", "Leave", 0},
		{"Late", "Present", 1},
	}

	for _, tc := range cases {
		if got := presentDelta(tc.old, tc.new); got != tc.want {
			t.Errorf("presentDelta(%q, %q) = %d, want %d", tc.old, tc.new, got, tc.want)
		}
	}
}

func TestRecordQueryToFilter(t *testing.T) {
	t.Run("Empty query matches everything", func(t *testing.T) {
		filter := RecordQuery{}.toFilter()
		if len(filter) != 0 {
			t.Errorf("Expected empty filter, got %v", filter)
		}
	})

	t.Run("Date bounds are normalized to midnight", func(t *testing.T) {
		from := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
		to := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

		filter := RecordQuery{StudentID: "s1", From: from, To: to}.toFilter()

		if filter["student_id"] != "s1" {
			t.Errorf("Expected student filter, got %v", filter)
		}
		dateFilter, ok := filter["date"].(bson.M)
		if !ok {
			t.Fatalf("Expected date range filter, got %v", filter["date"])
		}
		if got := dateFilter["$gte"].(time.Time); got != engine.DateOf(from) {
			t.Errorf("From bound not normalized: %v", got)
		}
		if got := dateFilter["$lte"].(time.Time); got.Hour() != 0 {
			t.Errorf("To bound not normalized: %v", got)
		}
	})

	t.Run("Section scoping", func(t *testing.T) {
		filter := RecordQuery{Subject: "Maths", Section: "A", Branch: "CSE", Year: "2"}.toFilter()
		for _, key := range []string{"subject", "section", "branch", "year"} {
			if _, ok := filter[key]; !ok {
				t.Errorf("Expected %s in filter, got %v", key, filter)
			}
		}
	})
}

func TestCleanupDeleteScope(t *testing.T) {
	docs := []shared.AttendanceDoc{
		{ID: "att_1", StudentID: "s1", Status: "Present"},
		{ID: "att_2", StudentID: "s1", Status: "Absent"},
		{ID: "att_3", StudentID: "s2", Status: "Present"},
	}

	// The delete must target exactly the collected records, so a record
	// marked after the collection pass survives with its counters intact
	ids := docIDs(docs)
	if len(ids) != 3 {
		t.Fatalf("Expected 3 ids, got %d", len(ids))
	}
	for i, want := range []string{"att_1", "att_2", "att_3"} {
		if ids[i] != want {
			t.Errorf("Expected id %q at %d, got %q", want, i, ids[i])
		}
	}

	// Rollback per collected record mirrors the original marking bump
	var classes, present int
	for _, doc := range docs {
		classes--
		present -= presentDelta("", doc.Status)
	}
	if classes != -3 || present != -2 {
		t.Errorf("Expected rollback of -3 classes / -2 present, got %d / %d", classes, present)
	}
}

func TestDocToEngineRecord(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	marked := day.Add(9 * time.Hour)

	rec := docToEngineRecord(shared.AttendanceDoc{
		ID:        "att_1",
		Date:      day,
		StudentID: "s1",
		Subject:   "Maths",
		Section:   "A",
		Branch:    "CSE",
		Year:      "2",
		Status:    "Present",
		MarkedAt:  marked,
	})

	if rec.StudentID != "s1" || rec.Subject != "Maths" || rec.Status != engine.StatusPresent {
		t.Errorf("Field mapping wrong: %+v", rec)
	}
	if rec.Section != "A" || rec.Branch != "CSE" || rec.Year != "2" {
		t.Errorf("Scope mapping wrong: %+v", rec)
	}
	if !rec.Date.Equal(day) || !rec.MarkedAt.Equal(marked) {
		t.Errorf("Timestamp mapping wrong: %+v", rec)
	}
}
