package shared

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	now := time.Now()

	live := Session{ExpiresAt: now.Add(1 * time.Hour)}
	if live.IsExpired() {
		t.Error("Session expiring in an hour must not report expired")
	}

	// The TTL monitor deletes lazily, so a past deadline must still be caught
	stale := Session{ExpiresAt: now.Add(-1 * time.Minute)}
	if !stale.IsExpired() {
		t.Error("Session past its deadline must report expired")
	}
}

func TestIsValidSemester(t *testing.T) {
	valid := []string{"1st", "2nd", "3rd", "4th", "5th", "6th", "7th", "8th"}
	if len(valid) != MaxSemester {
		t.Fatalf("Expected %d semester labels, got %d", MaxSemester, len(valid))
	}
	for _, label := range valid {
		if !IsValidSemester(label) {
			t.Errorf("Expected %q to be valid", label)
		}
	}

	for _, label := range []string{"", "9th", "1", "first", "1ST"} {
		if IsValidSemester(label) {
			t.Errorf("Expected %q to be rejected", label)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RoleStudent, RoleFaculty, RoleAdmin} {
		if !IsValidRole(role) {
			t.Errorf("Expected %q to be valid", role)
		}
	}
	for _, role := range []string{"", "root", "Student"} {
		if IsValidRole(role) {
			t.Errorf("Expected %q to be rejected", role)
		}
	}
}

func TestGradeDocIsFinalized(t *testing.T) {
	open := GradeDoc{}
	if open.IsFinalized() {
		t.Error("Unpublished grade must not report finalized")
	}

	published := GradeDoc{ResultPublishedDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	if !published.IsFinalized() {
		t.Error("Published grade must report finalized")
	}
}
