package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-checkin/internal/database"
	"github.com/kozaktomas/face-checkin/internal/match"
	"github.com/kozaktomas/face-checkin/internal/web/handlers"
)

func (s *Server) setupRoutes(students database.StudentWriter, ledger database.AttendanceLedger, matcher *match.Matcher) {
	sessionsHandler := handlers.NewSessionsHandler(s.sessionManager, matcher)
	studentsHandler := handlers.NewStudentsHandler(students, matcher)
	attendanceHandler := handlers.NewAttendanceHandler(ledger)
	configHandler := handlers.NewConfigHandler(s.config)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Check-in sessions
		r.Post("/sessions", sessionsHandler.Create)
		r.Get("/sessions/{id}", sessionsHandler.Get)
		r.Delete("/sessions/{id}", sessionsHandler.Delete)
		r.Post("/sessions/{id}/frames", sessionsHandler.PushFrame)
		r.Get("/sessions/{id}/events", sessionsHandler.Events)

		// Roster
		r.Get("/students", studentsHandler.List)
		r.Post("/students", studentsHandler.Create)
		r.Get("/students/{id}", studentsHandler.Get)
		r.Delete("/students/{id}", studentsHandler.Delete)

		// Attendance
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/attendance/export", attendanceHandler.Export)

		// Config
		r.Get("/config", configHandler.Get)
	})
}
