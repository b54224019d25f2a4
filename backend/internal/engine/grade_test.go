package engine

import (
	"math"
	"testing"
)

func TestComputeGrade(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("Typical Components", func(t *testing.T) {
		result := ComputeGrade(GradeComponents{
			InternalMarks:  25,
			ExternalMarks:  55,
			PracticalMarks: 0,
		}, cfg)

		if result.TotalMarks != 80 || result.TotalMarksCapped != 80 {
			t.Errorf("Expected total 80, got %v (capped %v)", result.TotalMarks, result.TotalMarksCapped)
		}
		if result.LetterGrade != "A" || result.GradePoints != 9 {
			t.Errorf("Expected A/9, got %s/%v", result.LetterGrade, result.GradePoints)
		}
		if !result.IsPass {
			t.Error("80% must pass")
		}
	})

	t.Run("Clamp Above 100", func(t *testing.T) {
		// Maximum components sum to 150; percentage must never exceed 100
		result := ComputeGrade(GradeComponents{
			InternalMarks:  30,
			ExternalMarks:  70,
			PracticalMarks: 50,
		}, cfg)

		if result.TotalMarks != 150 {
			t.Errorf("Raw total should be preserved: got %v", result.TotalMarks)
		}
		if result.TotalMarksCapped != 100 || result.Percentage != 100 {
			t.Errorf("Expected capped 100, got %v / %v", result.TotalMarksCapped, result.Percentage)
		}
		if result.LetterGrade != "A+" || result.GradePoints != 10 {
			t.Errorf("Expected A+/10, got %s/%v", result.LetterGrade, result.GradePoints)
		}
	})

	t.Run("Clamp Below Zero", func(t *testing.T) {
		result := ComputeGrade(GradeComponents{InternalMarks: -5}, cfg)
		if result.Percentage != 0 || result.LetterGrade != "F" {
			t.Errorf("Expected 0%%/F, got %v%%/%s", result.Percentage, result.LetterGrade)
		}
		if result.IsPass {
			t.Error("0% must not pass")
		}
	})

	t.Run("Passing Threshold Boundary", func(t *testing.T) {
		exactly := ComputeGrade(GradeComponents{InternalMarks: 20, ExternalMarks: 15}, cfg)
		if !exactly.IsPass || exactly.LetterGrade != "C" {
			t.Errorf("35%% should pass with C, got pass=%t grade=%s", exactly.IsPass, exactly.LetterGrade)
		}

		below := ComputeGrade(GradeComponents{InternalMarks: 20, ExternalMarks: 14}, cfg)
		if below.IsPass || below.LetterGrade != "F" {
			t.Errorf("34%% should fail with F, got pass=%t grade=%s", below.IsPass, below.LetterGrade)
		}
	})

	t.Run("Custom Threshold", func(t *testing.T) {
		strict := cfg
		strict.PassingThreshold = 50
		result := ComputeGrade(GradeComponents{InternalMarks: 20, ExternalMarks: 20}, strict)
		if result.IsPass {
			t.Error("40% must fail under a 50 threshold")
		}
	})
}

func TestLetterGradeBoundaries(t *testing.T) {
	cfg := DefaultConfig()

	// Each band is inclusive on its lower bound
	cases := []struct {
		percentage float64
		letter     string
		points     float64
	}{
		{100, "A+", 10},
		{90, "A+", 10},
		{89.9, "A", 9},
		{80, "A", 9},
		{79, "A-", 8},
		{70, "A-", 8},
		{69, "B+", 7},
		{60, "B+", 7},
		{59, "B", 6},
		{50, "B", 6},
		{49, "C+", 5},
		{40, "C+", 5},
		{39, "C", 4},
		{35, "C", 4},
		{34, "F", 0},
		{0, "F", 0},
	}

	for _, tc := range cases {
		letter, points := LetterGradeFor(tc.percentage, cfg)
		if letter != tc.letter || points != tc.points {
			t.Errorf("%.1f%%: expected %s/%v, got %s/%v",
				tc.percentage, tc.letter, tc.points, letter, points)
		}
	}
}

func TestComputeGPA(t *testing.T) {
	t.Run("Empty Results", func(t *testing.T) {
		summary := ComputeGPA(nil)
		if summary.CGPA != 0 || summary.TotalCredits != 0 {
			t.Errorf("Expected zero summary, got %+v", summary)
		}
	})

	t.Run("Credit Weighted", func(t *testing.T) {
		results := []CourseGrade{
			{CourseID: "CS101", Semester: "1st", Credits: 4, GradePoints: 10},
			{CourseID: "MA101", Semester: "1st", Credits: 4, GradePoints: 8},
			{CourseID: "PH102", Semester: "2nd", Credits: 2, GradePoints: 6},
		}

		summary := ComputeGPA(results)

		// (40 + 32 + 12) / 10 = 8.4
		if math.Abs(summary.CGPA-8.4) > 1e-9 {
			t.Errorf("Expected CGPA 8.4, got %v", summary.CGPA)
		}
		if summary.TotalCredits != 10 {
			t.Errorf("Expected 10 credits, got %v", summary.TotalCredits)
		}

		if len(summary.SemesterBreakdown) != 2 {
			t.Fatalf("Expected 2 semesters, got %d", len(summary.SemesterBreakdown))
		}

		first := summary.SemesterBreakdown[0]
		if first.Semester != "1st" || math.Abs(first.SGPA-9.0) > 1e-9 || first.Courses != 2 {
			t.Errorf("1st semester: expected SGPA 9.0 over 2 courses, got %+v", first)
		}

		second := summary.SemesterBreakdown[1]
		if second.Semester != "2nd" || math.Abs(second.SGPA-6.0) > 1e-9 {
			t.Errorf("2nd semester: expected SGPA 6.0, got %+v", second)
		}
	})

	t.Run("Zero Credit Course", func(t *testing.T) {
		summary := ComputeGPA([]CourseGrade{
			{CourseID: "AUDIT", Semester: "1st", Credits: 0, GradePoints: 10},
		})
		if summary.CGPA != 0 {
			t.Errorf("Zero credits must yield zero CGPA, got %v", summary.CGPA)
		}
		if len(summary.SemesterBreakdown) != 1 || summary.SemesterBreakdown[0].SGPA != 0 {
			t.Errorf("Expected zero SGPA breakdown, got %+v", summary.SemesterBreakdown)
		}
	})
}
