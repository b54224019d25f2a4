// ============================================================================
// backend/cmd/seeder/main.go
// Development database seeder
// ============================================================================

package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"acadpulse/backend/internal/engine"
	"acadpulse/backend/internal/filestore"
	"acadpulse/backend/internal/shared"
)

const (
	AdminID    = "user_admin-001"
	FacultyID1 = "user_faculty-001"
	FacultyID2 = "user_faculty-002"
	StudentID1 = "user_student-001"
	StudentID2 = "user_student-002"
	StudentID3 = "user_student-003"

	CommonPassword = "password"
	AcademicYear   = "2024-25"
)

// CourseSeed describes one course to create.
type CourseSeed struct {
	ID        string
	Code      string
	Title     string
	Subject   string
	Credits   float64
	Semester  string
	FacultyID string
	Branch    string
	Year      string
}

func main() {
	log.Println("Starting AcadPulse Seeder...")

	shared.LoadEnv(".env")

	config, err := shared.LoadConfig("seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	// Clean start
	if err := db.Drop(context.Background()); err != nil {
		log.Fatalf("Failed to drop database: %v", err)
	}
	log.Println("Database cleared successfully.")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := shared.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	users := seedUsers(ctx, db, config)
	courses := seedCourses(ctx, db)
	seedAttendance(ctx, db, courses)
	seedGrades(ctx, db, courses)

	exportSnapshot(config.DataDir, users, courses)

	log.Println("All data seeding completed successfully.")
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func seedUsers(ctx context.Context, db *mongo.Database, config *shared.Config) []shared.User {
	log.Println("--- Seeding Users ---")
	usersCol := db.Collection(shared.ColUsers)

	users := []shared.User{
		{ID: AdminID, Name: "Super Admin", Email: "admin@example.com", Role: shared.RoleAdmin},
		{ID: FacultyID1, Name: "Dr. Jane Professor", Email: "faculty@example.com", Role: shared.RoleFaculty,
			FacultyID: "FAC-001", Department: "Computer Science"},
		{ID: FacultyID2, Name: "Prof. Alan Turing", Email: "faculty2@example.com", Role: shared.RoleFaculty,
			FacultyID: "FAC-002", Department: "Mathematics"},
		{ID: StudentID1, Name: "John Student", Email: "student@example.com", Role: shared.RoleStudent,
			StudentID: "202400001", Branch: "CSE", Year: "2", Section: "A"},
		{ID: StudentID2, Name: "Alice Wonderland", Email: "student2@example.com", Role: shared.RoleStudent,
			StudentID: "202400002", Branch: "CSE", Year: "2", Section: "A"},
		{ID: StudentID3, Name: "Bob Builder", Email: "student3@example.com", Role: shared.RoleStudent,
			StudentID: "202400003", Branch: "ECE", Year: "2", Section: "B"},
	}

	hashedBytes, _ := bcrypt.GenerateFromPassword([]byte(CommonPassword), config.Security.BCryptCost)
	hashedPassword := string(hashedBytes)

	for i := range users {
		users[i].PasswordHash = hashedPassword
		users[i].IsActive = true
		users[i].CreatedAt = time.Now()

		filter := bson.M{"email": users[i].Email}
		update := bson.M{"$set": users[i]}
		opts := options.Update().SetUpsert(true)

		if _, err := usersCol.UpdateOne(ctx, filter, update, opts); err != nil {
			log.Fatalf("Error seeding user %s: %v", users[i].Email, err)
		}
		log.Printf("Seeded %s: %s", users[i].Role, users[i].Email)
	}
	return users
}

func seedCourses(ctx context.Context, db *mongo.Database) []shared.Course {
	log.Println("--- Seeding Courses ---")
	coursesCol := db.Collection(shared.ColCourses)

	seeds := []CourseSeed{
		{"course_cs201", "CS-201", "Data Structures & Algorithms", "Data Structures", 4, "3rd", FacultyID1, "CSE", "2"},
		{"course_cs202", "CS-202", "Operating Systems", "Operating Systems", 4, "3rd", FacultyID1, "CSE", "2"},
		{"course_ma201", "MA-201", "Discrete Mathematics", "Discrete Maths", 3, "3rd", FacultyID2, "CSE", "2"},
		{"course_ec201", "EC-201", "Digital Electronics", "Digital Electronics", 3, "3rd", FacultyID2, "ECE", "2"},
	}

	var courses []shared.Course
	now := time.Now()

	for _, s := range seeds {
		course := shared.Course{
			ID:        s.ID,
			Code:      s.Code,
			Title:     s.Title,
			Subject:   s.Subject,
			Credits:   s.Credits,
			Semester:  s.Semester,
			FacultyID: s.FacultyID,
			Branch:    s.Branch,
			Year:      s.Year,
			CreatedAt: now,
		}

		if _, err := coursesCol.InsertOne(ctx, course); err != nil {
			log.Fatalf("Error seeding course %s: %v", s.Code, err)
		}
		log.Printf("Seeded Course: %s (%s)", s.Code, s.Subject)
		courses = append(courses, course)
	}
	return courses
}

// seedAttendance writes two weeks of class sessions for the CSE section.
func seedAttendance(ctx context.Context, db *mongo.Database, courses []shared.Course) {
	log.Println("--- Seeding Attendance ---")
	attendanceCol := db.Collection(shared.ColAttendance)
	usersCol := db.Collection(shared.ColUsers)

	students := []string{StudentID1, StudentID2}
	start := engine.DateOf(time.Now().AddDate(0, 0, -14))

	counters := make(map[string]*shared.UserStats)
	for _, id := range students {
		counters[id] = &shared.UserStats{}
	}

	for _, course := range courses {
		if course.Branch != "CSE" {
			continue
		}
		for dayOffset := 0; dayOffset < 10; dayOffset++ {
			day := start.AddDate(0, 0, dayOffset)
			for i, studentID := range students {
				// Second student misses every fourth session
				status := string(engine.StatusPresent)
				if i == 1 && dayOffset%4 == 3 {
					status = string(engine.StatusAbsent)
				}

				doc := shared.AttendanceDoc{
					ID:        shared.GenerateID("att"),
					Date:      day,
					StudentID: studentID,
					Subject:   course.Subject,
					Section:   "A",
					Branch:    course.Branch,
					Year:      course.Year,
					Status:    status,
					FacultyID: course.FacultyID,
					MarkedAt:  day.Add(9 * time.Hour),
				}
				if _, err := attendanceCol.InsertOne(ctx, doc); err != nil {
					log.Fatalf("Error seeding attendance: %v", err)
				}

				counters[studentID].TotalClasses++
				if status == string(engine.StatusPresent) {
					counters[studentID].TotalPresent++
				}
			}
		}
	}

	for studentID, stats := range counters {
		_, err := usersCol.UpdateOne(ctx, bson.M{"_id": studentID}, bson.M{"$set": bson.M{
			"stats.total_classes": stats.TotalClasses,
			"stats.total_present": stats.TotalPresent,
		}})
		if err != nil {
			log.Fatalf("Error seeding counters for %s: %v", studentID, err)
		}
		log.Printf("Seeded Attendance: %s present %d/%d", studentID, stats.TotalPresent, stats.TotalClasses)
	}
}

// seedGrades opens grade records for the CSE students and publishes one
// course's results.
func seedGrades(ctx context.Context, db *mongo.Database, courses []shared.Course) {
	log.Println("--- Seeding Grades ---")
	gradesCol := db.Collection(shared.ColGrades)

	grading := engine.DefaultConfig()
	now := time.Now()

	type gradeSeed struct {
		studentID string
		courseID  string
		internal  float64
		external  float64
		practical float64
		published bool
	}

	seeds := []gradeSeed{
		{StudentID1, "course_cs201", 26, 58, 0, true},
		{StudentID2, "course_cs201", 22, 49, 0, true},
		{StudentID1, "course_ma201", 24, 51, 0, false},
		{StudentID2, "course_ma201", 18, 40, 0, false},
	}

	courseByID := make(map[string]shared.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}

	for _, s := range seeds {
		course := courseByID[s.courseID]
		result := engine.ComputeGrade(engine.GradeComponents{
			InternalMarks:  s.internal,
			ExternalMarks:  s.external,
			PracticalMarks: s.practical,
		}, grading)

		doc := shared.GradeDoc{
			ID:               shared.GenerateID("grade"),
			StudentID:        s.studentID,
			CourseID:         s.courseID,
			CourseCode:       course.Code,
			Semester:         course.Semester,
			AcademicYear:     AcademicYear,
			Credits:          course.Credits,
			InternalMarks:    s.internal,
			ExternalMarks:    s.external,
			PracticalMarks:   s.practical,
			TotalMarks:       result.TotalMarks,
			TotalMarksCapped: result.TotalMarksCapped,
			Percentage:       result.Percentage,
			LetterGrade:      result.LetterGrade,
			GradePoints:      result.GradePoints,
			IsPass:           result.IsPass,
			LastModifiedBy:   course.FacultyID,
			CreatedAt:        now,
		}
		if s.published {
			doc.ResultPublishedDate = now
		}

		if _, err := gradesCol.InsertOne(ctx, doc); err != nil {
			log.Fatalf("Error seeding grade for %s: %v", s.studentID, err)
		}
		log.Printf("Seeded Grade: %s in %s -> %s (published: %t)", s.studentID, course.Code, result.LetterGrade, s.published)
	}
}

// exportSnapshot writes the seeded roster to the JSON data directory so the
// offline tools have a starting point.
func exportSnapshot(dataDir string, users []shared.User, courses []shared.Course) {
	store, err := filestore.New(dataDir)
	if err != nil {
		log.Printf("Warning: snapshot export skipped: %v", err)
		return
	}

	// The database was just reseeded, so snapshots from previous runs are stale
	names, err := store.Collections()
	if err != nil {
		log.Printf("Warning: failed to list stale snapshots: %v", err)
	}
	for _, name := range names {
		if err := store.Delete(name); err != nil {
			log.Printf("Warning: failed to delete stale snapshot %s: %v", name, err)
		}
	}

	// Credentials never land in the snapshot files
	sanitized := make([]shared.User, len(users))
	copy(sanitized, users)
	for i := range sanitized {
		sanitized[i].PasswordHash = ""
	}

	if err := store.Write("users", sanitized); err != nil {
		log.Printf("Warning: failed to export users snapshot: %v", err)
	}
	if err := store.Write("courses", courses); err != nil {
		log.Printf("Warning: failed to export courses snapshot: %v", err)
	}
	log.Printf("Exported roster snapshot to %s", store.Dir())
}
