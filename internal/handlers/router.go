package handlers

import "net/http"

// NewRouter registers every API route on a fresh ServeMux
func NewRouter(m *Middleware, auth *AuthHandler, learner *LearnerHandler, admin *AdminHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.HandleFunc("POST /api/auth/admin/login", m.RateLimit(auth.AdminLogin))
	mux.HandleFunc("POST /api/auth/student/login", m.RateLimit(auth.StudentLogin))
	mux.HandleFunc("GET /api/me", m.RequireAuth(auth.Me))

	// Learner
	mux.HandleFunc("GET /api/me/curriculum", m.RequireStudent(learner.GetCurriculum))
	mux.HandleFunc("GET /api/me/rewards", m.RequireStudent(learner.GetRewards))
	mux.HandleFunc("GET /api/me/results", m.RequireStudent(learner.GetResults))
	mux.HandleFunc("POST /api/sessions", m.RequireStudent(learner.StartSession))
	mux.HandleFunc("GET /api/sessions/{id}", m.RequireStudent(learner.GetSession))
	mux.HandleFunc("POST /api/sessions/{id}/submit", m.RequireStudent(learner.SubmitAnswers))
	mux.HandleFunc("POST /api/sessions/{id}/finalize", m.RequireStudent(learner.FinalizeSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", m.RequireStudent(learner.AbandonSession))
	mux.HandleFunc("POST /api/games/{kind}/results", m.RequireStudent(learner.RecordGame))
	mux.HandleFunc("GET /api/games/{kind}/leaderboard", m.RequireAuth(learner.Leaderboard))

	// Admin: accounts
	mux.HandleFunc("POST /api/admin/users", m.RequireAdmin(admin.CreateAdmin))
	mux.HandleFunc("GET /api/admin/students", m.RequireAdmin(admin.ListStudents))
	mux.HandleFunc("POST /api/admin/students", m.RequireAdmin(admin.CreateStudent))
	mux.HandleFunc("GET /api/admin/students/{id}", m.RequireAdmin(admin.GetStudent))
	mux.HandleFunc("PUT /api/admin/students/{id}", m.RequireAdmin(admin.UpdateStudent))
	mux.HandleFunc("POST /api/admin/students/{id}/reset-password", m.RequireAdmin(admin.ResetStudentPassword))
	mux.HandleFunc("GET /api/admin/students/{id}/results", m.RequireAdmin(admin.GetStudentResults))

	// Admin: classes
	mux.HandleFunc("GET /api/admin/classes", m.RequireAdmin(admin.ListClasses))
	mux.HandleFunc("POST /api/admin/classes", m.RequireAdmin(admin.CreateClass))
	mux.HandleFunc("GET /api/admin/classes/{id}", m.RequireAdmin(admin.GetClass))
	mux.HandleFunc("PUT /api/admin/classes/{id}", m.RequireAdmin(admin.UpdateClass))
	mux.HandleFunc("DELETE /api/admin/classes/{id}", m.RequireAdmin(admin.DeleteClass))

	// Admin: words
	mux.HandleFunc("GET /api/admin/books", m.RequireAdmin(admin.ListBooks))
	mux.HandleFunc("GET /api/admin/books/{book}/words", m.RequireAdmin(admin.ListBookWords))
	mux.HandleFunc("POST /api/admin/words", m.RequireAdmin(admin.CreateWord))
	mux.HandleFunc("GET /api/admin/words/{id}", m.RequireAdmin(admin.GetWord))
	mux.HandleFunc("PUT /api/admin/words/{id}", m.RequireAdmin(admin.UpdateWord))
	mux.HandleFunc("DELETE /api/admin/words/{id}", m.RequireAdmin(admin.DeleteWord))

	// Admin: curriculum
	mux.HandleFunc("GET /api/admin/students/{id}/curriculum", m.RequireAdmin(admin.GetCurriculum))
	mux.HandleFunc("POST /api/admin/students/{id}/curriculum/slots", m.RequireAdmin(admin.AddSlot))
	mux.HandleFunc("DELETE /api/admin/students/{id}/curriculum/slots/{slot}", m.RequireAdmin(admin.RemoveSlot))
	mux.HandleFunc("PUT /api/admin/students/{id}/curriculum/slots/{slot}/position", m.RequireAdmin(admin.MoveSlot))
	mux.HandleFunc("POST /api/admin/students/{id}/curriculum/slots/{slot}/queue", m.RequireAdmin(admin.EnqueueBook))
	mux.HandleFunc("DELETE /api/admin/students/{id}/curriculum/slots/{slot}/queue/{index}", m.RequireAdmin(admin.RemoveQueueEntry))
	mux.HandleFunc("PUT /api/admin/students/{id}/curriculum/book-settings", m.RequireAdmin(admin.SetBookSettings))
	mux.HandleFunc("PUT /api/admin/students/{id}/curriculum/study-days", m.RequireAdmin(admin.SetStudyDays))
	mux.HandleFunc("PUT /api/admin/students/{id}/curriculum/weekday-counts", m.RequireAdmin(admin.SetWeekdayCounts))
	mux.HandleFunc("PUT /api/admin/students/{id}/curriculum/words-per-session", m.RequireAdmin(admin.SetWordsPerSession))
	mux.HandleFunc("PUT /api/admin/students/{id}/curriculum/progress", m.RequireAdmin(admin.SetProgress))

	// Admin: rewards
	mux.HandleFunc("GET /api/admin/rewards/policy", m.RequireAdmin(admin.GetRewardPolicy))
	mux.HandleFunc("PUT /api/admin/rewards/policy", m.RequireAdmin(admin.UpdateRewardPolicy))
	mux.HandleFunc("GET /api/admin/students/{id}/rewards", m.RequireAdmin(admin.GetRewardHistory))
	mux.HandleFunc("POST /api/admin/students/{id}/rewards/adjust", m.RequireAdmin(admin.AdjustBalance))
	mux.HandleFunc("GET /api/admin/students/{id}/rewards/replay", m.RequireAdmin(admin.ReplayLedger))

	// Admin: backup
	mux.HandleFunc("GET /api/admin/backup", m.RequireAdmin(admin.ExportDatabase))
	mux.HandleFunc("POST /api/admin/backup", m.RequireAdmin(admin.ImportDatabase))

	return mux
}
