package student

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"acadpulse/backend/internal/engine"
	"acadpulse/backend/internal/filestore"
	"acadpulse/backend/internal/shared"
)

func TestSnapshotOf(t *testing.T) {
	computed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	overview := &Overview{
		StudentID: "s1",
		Name:      "Asha",
		Attendance: engine.BuildAttendanceReport("student s1",
			engine.AttendanceSummary{Present: 18, Total: 24, Percentage: 75},
			map[string]engine.AttendanceSummary{
				"Maths": {Present: 9, Total: 12, Percentage: 75},
			}),
		GPA:        engine.GPASummary{CGPA: 8.4, TotalCredits: 22},
		Streak:     4,
		BestStreak: 9,
		ComputedAt: computed,
	}

	doc := snapshotOf(overview)

	if doc.StudentID != "s1" {
		t.Errorf("Expected student s1, got %s", doc.StudentID)
	}
	if doc.AttendancePercentage != 75 || doc.TotalClasses != 24 || doc.TotalPresent != 18 {
		t.Errorf("Attendance carry-over wrong: %+v", doc)
	}
	if doc.CGPA != 8.4 || doc.CreditsEarned != 22 {
		t.Errorf("GPA carry-over wrong: %+v", doc)
	}
	if !doc.ComputedAt.Equal(computed) {
		t.Errorf("ComputedAt altered: %v", doc.ComputedAt)
	}
}

func testStore(t *testing.T) *filestore.Store {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New failed: %v", err)
	}
	return store
}

func TestOfflineSnapshotRoundtrip(t *testing.T) {
	svc := &Service{store: testStore(t)}

	doc := &shared.AcademicPulseDoc{
		StudentID:            "s1",
		AttendancePercentage: 75,
		TotalClasses:         24,
		TotalPresent:         18,
		CGPA:                 8.4,
		CreditsEarned:        22,
		ComputedAt:           time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	svc.writeOfflineSnapshot(doc)

	got, ok := svc.readOfflineSnapshot("s1")
	if !ok {
		t.Fatal("Expected mirrored snapshot to be readable")
	}
	if got.AttendancePercentage != 75 || got.CGPA != 8.4 {
		t.Errorf("Mirrored snapshot altered: %+v", got)
	}

	if _, ok := svc.readOfflineSnapshot("s2"); ok {
		t.Error("Unknown student must not resolve to a snapshot")
	}
}

func TestOfflineSnapshotAccumulates(t *testing.T) {
	svc := &Service{store: testStore(t)}

	svc.writeOfflineSnapshot(&shared.AcademicPulseDoc{StudentID: "s1", CGPA: 8.0})
	svc.writeOfflineSnapshot(&shared.AcademicPulseDoc{StudentID: "s2", CGPA: 9.0})
	// Rewriting a student replaces only that entry
	svc.writeOfflineSnapshot(&shared.AcademicPulseDoc{StudentID: "s1", CGPA: 8.5})

	s1, ok := svc.readOfflineSnapshot("s1")
	if !ok || s1.CGPA != 8.5 {
		t.Errorf("Expected s1 updated to 8.5, got %+v (ok=%t)", s1, ok)
	}
	s2, ok := svc.readOfflineSnapshot("s2")
	if !ok || s2.CGPA != 9.0 {
		t.Errorf("Expected s2 preserved at 9.0, got %+v (ok=%t)", s2, ok)
	}
}

func TestOfflineSnapshotWithoutStore(t *testing.T) {
	svc := &Service{}

	// Both paths must be safe no-ops when no store is configured
	svc.writeOfflineSnapshot(&shared.AcademicPulseDoc{StudentID: "s1"})
	if _, ok := svc.readOfflineSnapshot("s1"); ok {
		t.Error("Storeless service must never report a snapshot")
	}
}

func TestOfflineSnapshotCorruptFile(t *testing.T) {
	store := testStore(t)
	svc := &Service{store: store}

	path := filepath.Join(store.Dir(), shared.ColPulse+".json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to plant corrupt file: %v", err)
	}

	if _, ok := svc.readOfflineSnapshot("s1"); ok {
		t.Error("Corrupt mirror must not resolve")
	}

	// A fresh write rebuilds the mirror from scratch
	svc.writeOfflineSnapshot(&shared.AcademicPulseDoc{StudentID: "s1", CGPA: 7.0})
	got, ok := svc.readOfflineSnapshot("s1")
	if !ok || got.CGPA != 7.0 {
		t.Errorf("Expected rebuilt mirror, got %+v (ok=%t)", got, ok)
	}
}
