package handlers

import (
	"net/http"
	"strconv"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/quiz"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/service"
)

// LearnerHandler serves the student-facing API
type LearnerHandler struct {
	curriculumService *service.CurriculumService
	testService       *service.TestService
	rewardService     *service.RewardService
	gameService       *service.GameService
}

// NewLearnerHandler creates a new learner handler
func NewLearnerHandler(curriculumService *service.CurriculumService, testService *service.TestService, rewardService *service.RewardService, gameService *service.GameService) *LearnerHandler {
	return &LearnerHandler{
		curriculumService: curriculumService,
		testService:       testService,
		rewardService:     rewardService,
		gameService:       gameService,
	}
}

// studentID returns the caller's id. Routes are wrapped in RequireStudent.
func studentID(r *http.Request) int64 {
	if session := GetSessionFromContext(r.Context()); session != nil {
		return session.SubjectID
	}
	return 0
}

// parseLimit reads ?limit= and clamps it to 1..maxHistoryLimit
func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

// GetCurriculum returns the caller's study plan
func (h *LearnerHandler) GetCurriculum(w http.ResponseWriter, r *http.Request) {
	store, err := h.curriculumService.GetCurriculum(studentID(r))
	if err != nil {
		respondWithServiceError(w, "Error loading curriculum", err)
		return
	}
	respondJSON(w, http.StatusOK, store)
}

// GetRewards returns the caller's balance and recent ledger entries
func (h *LearnerHandler) GetRewards(w http.ResponseWriter, r *http.Request) {
	summary, err := h.rewardService.History(studentID(r), parseLimit(r))
	if err != nil {
		respondWithServiceError(w, "Error loading rewards", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetResults returns the caller's recent test results
func (h *LearnerHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.testService.Results(studentID(r), parseLimit(r))
	if err != nil {
		respondWithServiceError(w, "Error loading results", err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

type startSessionRequest struct {
	Book  string            `json:"book"`
	Range *models.WordRange `json:"range,omitempty"`
}

// StartSession opens a test session on today's words
func (h *LearnerHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.testService.Start(studentID(r), req.Book, req.Range)
	if err != nil {
		respondWithServiceError(w, "Error starting session", err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// GetSession returns the current state of a session
func (h *LearnerHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.testService.Get(studentID(r), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error loading session", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type submitRequest struct {
	Answers []quiz.Answer `json:"answers"`
}

type submitResponse struct {
	Result  *quiz.SubmitResult `json:"result"`
	Session *quiz.SessionView  `json:"session"`
}

// SubmitAnswers grades answers for the session's current step
func (h *LearnerHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, view, err := h.testService.Submit(studentID(r), r.PathValue("id"), req.Answers)
	if err != nil {
		respondWithServiceError(w, "Error submitting answers", err)
		return
	}
	respondJSON(w, http.StatusOK, submitResponse{Result: result, Session: view})
}

// FinalizeSession records a completed session
func (h *LearnerHandler) FinalizeSession(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.testService.Finalize(r.Context(), studentID(r), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error finalizing session", err)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

// AbandonSession discards a session without recording it
func (h *LearnerHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := h.testService.Abandon(studentID(r), r.PathValue("id")); err != nil {
		respondWithServiceError(w, "Error abandoning session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordGame scores a finished mini-game
func (h *LearnerHandler) RecordGame(w http.ResponseWriter, r *http.Request) {
	var sub service.GameSubmission
	if !decodeJSON(w, r, &sub) {
		return
	}

	kind := models.GameKind(r.PathValue("kind"))
	outcome, err := h.gameService.RecordResult(r.Context(), studentID(r), kind, sub)
	if err != nil {
		respondWithServiceError(w, "Error recording game", err)
		return
	}
	respondJSON(w, http.StatusCreated, outcome)
}

// Leaderboard returns the best scores for a mini-game
func (h *LearnerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	kind := models.GameKind(r.PathValue("kind"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.gameService.Leaderboard(kind, limit)
	if err != nil {
		respondWithServiceError(w, "Error loading leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
