// ============================================================================
// backend/internal/api/routes.go
// Chi router, middleware stack, and route definitions
// ============================================================================

package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"acadpulse/backend/internal/admin"
	"acadpulse/backend/internal/api/handlers"
	"acadpulse/backend/internal/attendance"
	"acadpulse/backend/internal/auth"
	"acadpulse/backend/internal/grade"
	"acadpulse/backend/internal/shared"
	"acadpulse/backend/internal/student"
)

// Services bundles everything the router serves.
type Services struct {
	Config     *shared.Config
	Auth       *auth.Service
	Attendance *attendance.Service
	Grades     *grade.Service
	Students   *student.Service
	Admin      *admin.Service
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(svc *Services) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS Configuration (Allow React Frontend)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   svc.Config.CORS.AllowedOrigins,
		AllowedMethods:   svc.Config.CORS.AllowedMethods,
		AllowedHeaders:   svc.Config.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: svc.Config.CORS.AllowCredentials,
		MaxAge:           svc.Config.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{Auth: svc.Auth}
	attendanceHandler := &handlers.AttendanceHandler{Attendance: svc.Attendance}
	gradeHandler := &handlers.GradeHandler{Grades: svc.Grades}
	studentHandler := &handlers.StudentHandler{Students: svc.Students}
	adminHandler := &handlers.AdminHandler{Admin: svc.Admin}

	// 3. Define Routes (grouped by prefix)
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(svc.Auth))

			// Auth (Authenticated Only)
			r.Get("/auth/validate", authHandler.Validate)
			r.Post("/auth/change-password", authHandler.ChangePassword)

			// Student Dashboard
			r.Route("/student", func(r chi.Router) {
				r.Get("/overview", studentHandler.GetOverview)
				r.Get("/pulse", studentHandler.GetPulse)
			})

			// Attendance
			r.Route("/attendance", func(r chi.Router) {
				r.Get("/records", attendanceHandler.GetRecords)
				r.Get("/summary", attendanceHandler.StudentSummary)
				r.Get("/export", attendanceHandler.ExportCSV)

				// Faculty
				r.Group(func(r chi.Router) {
					r.Use(RequireRole(shared.RoleFaculty, shared.RoleAdmin))
					r.Post("/mark", attendanceHandler.MarkSession)
					r.Get("/section", attendanceHandler.SectionSummary)
				})
			})

			// Grades
			r.Route("/grades", func(r chi.Router) {
				r.Get("/", gradeHandler.GetStudentGrades)
				r.Get("/gpa", gradeHandler.GetGPA)

				// Faculty
				r.Group(func(r chi.Router) {
					r.Use(RequireRole(shared.RoleFaculty, shared.RoleAdmin))
					r.Get("/course/{course_id}", gradeHandler.GetCourseGrades)
					r.Post("/enroll", gradeHandler.Enroll)
					r.Post("/submit", gradeHandler.SubmitComponents)
					r.Post("/assessment", gradeHandler.AddAssessment)
					r.Post("/publish/{course_id}", gradeHandler.Publish)
				})
			})

			// Admin Management
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(shared.RoleAdmin))

				r.Get("/stats", adminHandler.GetSystemStats)
				r.Get("/analytics", adminHandler.GetAnalytics)
				r.Get("/audit", adminHandler.GetAuditLogs)

				r.Post("/users", adminHandler.CreateUser)
				r.Patch("/users/{id}/status", adminHandler.SetUserStatus)

				r.Post("/attendance/cleanup", attendanceHandler.Cleanup)
				r.Post("/recompute", adminHandler.Recompute)
			})
		})
	})

	return r
}
