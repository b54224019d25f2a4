// ============================================================================
// backend/internal/engine/grade.go
// Final grade computation, letter conversion, and GPA rollups
// ============================================================================

package engine

import (
	"sort"
)

// ComputeGrade derives the final grade for one course from its assessment
// components under the supplied grading policy.
//
// The component maxima (30+70+50) can sum above 100 by construction when
// practicals overlap with externals, so the capped total is always clamped to
// [0,100] here regardless of upstream validation. Percentage can therefore
// never exceed 100. TotalMarks preserves the raw sum for callers that want to
// surface the clamp.
func ComputeGrade(c GradeComponents, cfg Config) GradeResult {
	total := c.InternalMarks + c.ExternalMarks + c.PracticalMarks

	capped := total
	if capped > 100 {
		capped = 100
	}
	if capped < 0 {
		capped = 0
	}

	letter, points := LetterGradeFor(capped, cfg)

	return GradeResult{
		TotalMarks:       total,
		TotalMarksCapped: capped,
		Percentage:       capped,
		LetterGrade:      letter,
		GradePoints:      points,
		IsPass:           capped >= cfg.PassingThreshold,
	}
}

// LetterGradeFor converts a percentage to a letter grade and grade points via
// the configured band table. Bands are inclusive on their lower bound: 80 is
// an A, 79 is an A-. An empty or non-matching table yields "F"/0.
func LetterGradeFor(percentage float64, cfg Config) (string, float64) {
	for _, band := range cfg.GradeBands {
		if percentage >= band.MinPercentage {
			return band.LetterGrade, band.GradePoints
		}
	}
	return "F", 0
}

// ComputeGPA computes the credit-weighted CGPA and per-semester SGPA rollup
// from finalized course grades. Semesters are emitted in sorted order so the
// output is deterministic. Zero total credits yields a zero summary.
func ComputeGPA(results []CourseGrade) GPASummary {
	var totalPoints, totalCredits float64

	type semAgg struct {
		points  float64
		credits float64
		courses int
	}
	bySemester := make(map[string]*semAgg)

	for _, cg := range results {
		totalPoints += cg.GradePoints * cg.Credits
		totalCredits += cg.Credits

		agg, ok := bySemester[cg.Semester]
		if !ok {
			agg = &semAgg{}
			bySemester[cg.Semester] = agg
		}
		agg.points += cg.GradePoints * cg.Credits
		agg.credits += cg.Credits
		agg.courses++
	}

	summary := GPASummary{TotalCredits: totalCredits}
	if totalCredits > 0 {
		summary.CGPA = totalPoints / totalCredits
	}

	semesters := make([]string, 0, len(bySemester))
	for sem := range bySemester {
		semesters = append(semesters, sem)
	}
	sort.Strings(semesters)

	for _, sem := range semesters {
		agg := bySemester[sem]
		sgpa := 0.0
		if agg.credits > 0 {
			sgpa = agg.points / agg.credits
		}
		summary.SemesterBreakdown = append(summary.SemesterBreakdown, SemesterGPA{
			Semester: sem,
			SGPA:     sgpa,
			Credits:  agg.credits,
			Courses:  agg.courses,
		})
	}

	return summary
}
