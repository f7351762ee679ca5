package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/service"
)

// AdminHandler handles admin-specific routes
type AdminHandler struct {
	authService       *service.AuthService
	studentService    *service.StudentService
	classService      *service.ClassService
	wordService       *service.WordService
	curriculumService *service.CurriculumService
	rewardService     *service.RewardService
	testService       *service.TestService
	backupService     *service.BackupService
}

// AdminServices bundles the services the admin API drives
type AdminServices struct {
	Auth       *service.AuthService
	Students   *service.StudentService
	Classes    *service.ClassService
	Words      *service.WordService
	Curriculum *service.CurriculumService
	Rewards    *service.RewardService
	Tests      *service.TestService
	Backup     *service.BackupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(s AdminServices) *AdminHandler {
	return &AdminHandler{
		authService:       s.Auth,
		studentService:    s.Students,
		classService:      s.Classes,
		wordService:       s.Words,
		curriculumService: s.Curriculum,
		rewardService:     s.Rewards,
		testService:       s.Tests,
		backupService:     s.Backup,
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return 0, false
	}
	return id, true
}

func adminName(r *http.Request) string {
	if session := GetSessionFromContext(r.Context()); session != nil {
		return session.Name
	}
	return "unknown"
}

// Staff accounts

type createAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// CreateAdmin adds a staff account
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.CreateAdmin(req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, "Error creating admin", err)
		return
	}

	log.Printf("Admin account %s created by %s", user.Email, adminName(r))
	respondJSON(w, http.StatusCreated, user)
}

// Students

// ListStudents lists students, optionally filtered by ?class_id=
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	var classID *int64
	if raw := r.URL.Query().Get("class_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
			return
		}
		classID = &id
	}

	students, err := h.studentService.ListStudents(classID)
	if err != nil {
		respondWithServiceError(w, "Error listing students", err)
		return
	}
	respondJSON(w, http.StatusOK, students)
}

// CreateStudent registers a student and returns the one-time credentials
func (h *AdminHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var in service.StudentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	creds, err := h.studentService.CreateStudent(in)
	if err != nil {
		respondWithServiceError(w, "Error creating student", err)
		return
	}
	respondJSON(w, http.StatusCreated, creds)
}

// GetStudent returns one student
func (h *AdminHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	student, err := h.studentService.GetStudent(id)
	if err != nil {
		respondWithServiceError(w, "Error loading student", err)
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// UpdateStudent changes a student's name, class or active flag
func (h *AdminHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.StudentUpdate
	if !decodeJSON(w, r, &in) {
		return
	}

	student, err := h.studentService.UpdateStudent(id, in)
	if err != nil {
		respondWithServiceError(w, "Error updating student", err)
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// ResetStudentPassword issues a new generated password
func (h *AdminHandler) ResetStudentPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	creds, err := h.studentService.ResetPassword(id)
	if err != nil {
		respondWithServiceError(w, "Error resetting password", err)
		return
	}

	log.Printf("Password for student %d reset by %s", id, adminName(r))
	respondJSON(w, http.StatusOK, creds)
}

// GetStudentResults returns a student's recent test results
func (h *AdminHandler) GetStudentResults(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	results, err := h.testService.Results(id, parseLimit(r))
	if err != nil {
		respondWithServiceError(w, "Error loading results", err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// Classes

type classRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListClasses lists classes with their student counts
func (h *AdminHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.classService.ListClasses()
	if err != nil {
		respondWithServiceError(w, "Error listing classes", err)
		return
	}
	respondJSON(w, http.StatusOK, classes)
}

// CreateClass adds a class
func (h *AdminHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	class, err := h.classService.CreateClass(req.Name, req.Description)
	if err != nil {
		respondWithServiceError(w, "Error creating class", err)
		return
	}
	respondJSON(w, http.StatusCreated, class)
}

// GetClass returns one class
func (h *AdminHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	class, err := h.classService.GetClass(id)
	if err != nil {
		respondWithServiceError(w, "Error loading class", err)
		return
	}
	respondJSON(w, http.StatusOK, class)
}

// UpdateClass renames or re-describes a class
func (h *AdminHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req classRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	class, err := h.classService.UpdateClass(id, req.Name, req.Description)
	if err != nil {
		respondWithServiceError(w, "Error updating class", err)
		return
	}
	respondJSON(w, http.StatusOK, class)
}

// DeleteClass removes a class. Its students become unassigned.
func (h *AdminHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.classService.DeleteClass(id); err != nil {
		respondWithServiceError(w, "Error deleting class", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Words and books

// ListBooks lists every book with its word count
func (h *AdminHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.wordService.ListBooks()
	if err != nil {
		respondWithServiceError(w, "Error listing books", err)
		return
	}
	respondJSON(w, http.StatusOK, books)
}

// ListBookWords lists a book's words in position order
func (h *AdminHandler) ListBookWords(w http.ResponseWriter, r *http.Request) {
	words, err := h.wordService.ListBookWords(r.PathValue("book"))
	if err != nil {
		respondWithServiceError(w, "Error listing words", err)
		return
	}
	respondJSON(w, http.StatusOK, words)
}

// CreateWord adds a word. A zero position appends it to the book.
func (h *AdminHandler) CreateWord(w http.ResponseWriter, r *http.Request) {
	var word models.Word
	if !decodeJSON(w, r, &word) {
		return
	}

	created, err := h.wordService.CreateWord(word)
	if err != nil {
		respondWithServiceError(w, "Error creating word", err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetWord returns one word
func (h *AdminHandler) GetWord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	word, err := h.wordService.GetWord(id)
	if err != nil {
		respondWithServiceError(w, "Error loading word", err)
		return
	}
	respondJSON(w, http.StatusOK, word)
}

// UpdateWord edits a word's text. Book and position are kept.
func (h *AdminHandler) UpdateWord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var word models.Word
	if !decodeJSON(w, r, &word) {
		return
	}

	updated, err := h.wordService.UpdateWord(id, word)
	if err != nil {
		respondWithServiceError(w, "Error updating word", err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// DeleteWord removes a word and closes the gap it leaves
func (h *AdminHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.wordService.DeleteWord(id); err != nil {
		respondWithServiceError(w, "Error deleting word", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Curriculum

// GetCurriculum returns a student's full curriculum
func (h *AdminHandler) GetCurriculum(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	store, err := h.curriculumService.GetCurriculum(id)
	if err != nil {
		respondWithServiceError(w, "Error loading curriculum", err)
		return
	}
	respondJSON(w, http.StatusOK, store)
}

// respondWithCurriculum answers a curriculum edit with the stored result
func (h *AdminHandler) respondWithCurriculum(w http.ResponseWriter, status int, studentID int64) {
	store, err := h.curriculumService.GetCurriculum(studentID)
	if err != nil {
		respondWithServiceError(w, "Error loading curriculum", err)
		return
	}
	respondJSON(w, status, store)
}

type addSlotRequest struct {
	Book     string               `json:"book"`
	Settings *models.BookSettings `json:"settings,omitempty"`
}

// AddSlot appends a book to a student's active slots
func (h *AdminHandler) AddSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req addSlotRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	slot, err := h.curriculumService.AddSlot(id, req.Book, req.Settings)
	if err != nil {
		respondWithServiceError(w, "Error adding slot", err)
		return
	}
	respondJSON(w, http.StatusCreated, slot)
}

// RemoveSlot drops an active slot with its queue
func (h *AdminHandler) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.curriculumService.RemoveSlot(id, r.PathValue("slot")); err != nil {
		respondWithServiceError(w, "Error removing slot", err)
		return
	}
	h.respondWithCurriculum(w, http.StatusOK, id)
}

type moveSlotRequest struct {
	Position int `json:"position"`
}

// MoveSlot reorders an active slot
func (h *AdminHandler) MoveSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req moveSlotRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.curriculumService.MoveSlot(id, r.PathValue("slot"), req.Position); err != nil {
		respondWithServiceError(w, "Error moving slot", err)
		return
	}
	h.respondWithCurriculum(w, http.StatusOK, id)
}

// EnqueueBook queues a book behind a slot's current book
func (h *AdminHandler) EnqueueBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var entry models.QueueEntry
	if !decodeJSON(w, r, &entry) {
		return
	}

	slot, err := h.curriculumService.EnqueueBook(id, r.PathValue("slot"), entry)
	if err != nil {
		respondWithServiceError(w, "Error queueing book", err)
		return
	}
	respondJSON(w, http.StatusOK, slot)
}

// RemoveQueueEntry drops one queued book by index
func (h *AdminHandler) RemoveQueueEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid queue index", "", nil)
		return
	}

	slot, err := h.curriculumService.RemoveQueueEntry(id, r.PathValue("slot"), index)
	if err != nil {
		respondWithServiceError(w, "Error removing queue entry", err)
		return
	}
	respondJSON(w, http.StatusOK, slot)
}

type bookSettingsRequest struct {
	Book string `json:"book"`
	models.BookSettings
}

// SetBookSettings overrides mode and session length for one book
func (h *AdminHandler) SetBookSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req bookSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.curriculumService.SetBookSettings(id, req.Book, req.BookSettings); err != nil {
		respondWithServiceError(w, "Error saving book settings", err)
		return
	}
	h.respondWithCurriculum(w, http.StatusOK, id)
}

type studyDaysRequest struct {
	Days []int `json:"days"`
}

// SetStudyDays stores the weekdays a student studies on
func (h *AdminHandler) SetStudyDays(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req studyDaysRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.curriculumService.SetStudyDays(id, req.Days); err != nil {
		respondWithServiceError(w, "Error saving study days", err)
		return
	}
	h.respondWithCurriculum(w, http.StatusOK, id)
}

type weekdayCountsRequest struct {
	Counts map[int]int `json:"counts"`
}

// SetWeekdayCounts stores per-weekday session lengths
func (h *AdminHandler) SetWeekdayCounts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req weekdayCountsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.curriculumService.SetWeekdayCounts(id, req.Counts); err != nil {
		respondWithServiceError(w, "Error saving weekday counts", err)
		return
	}
	h.respondWithCurriculum(w, http.StatusOK, id)
}

type wordsPerSessionRequest struct {
	WordsPerSession int `json:"words_per_session"`
}

// SetWordsPerSession stores the student's default session length
func (h *AdminHandler) SetWordsPerSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req wordsPerSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.curriculumService.SetDefaultWordsPerSession(id, req.WordsPerSession); err != nil {
		respondWithServiceError(w, "Error saving words per session", err)
		return
	}
	h.respondWithCurriculum(w, http.StatusOK, id)
}

type progressRequest struct {
	Book  string `json:"book"`
	Index int    `json:"index"`
}

// SetProgress overwrites a book's progress
func (h *AdminHandler) SetProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req progressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.curriculumService.SetProgress(id, req.Book, req.Index); err != nil {
		respondWithServiceError(w, "Error saving progress", err)
		return
	}

	log.Printf("Progress for student %d on %q set to %d by %s", id, req.Book, req.Index, adminName(r))
	h.respondWithCurriculum(w, http.StatusOK, id)
}

// Rewards

// GetRewardPolicy returns the current reward amounts and caps
func (h *AdminHandler) GetRewardPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.rewardService.Policy(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error loading reward policy", err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// UpdateRewardPolicy replaces the reward policy
func (h *AdminHandler) UpdateRewardPolicy(w http.ResponseWriter, r *http.Request) {
	var policy models.RewardPolicy
	if !decodeJSON(w, r, &policy) {
		return
	}

	if err := h.rewardService.UpdatePolicy(r.Context(), policy); err != nil {
		respondWithServiceError(w, "Error saving reward policy", err)
		return
	}

	log.Printf("Reward policy updated by %s", adminName(r))
	respondJSON(w, http.StatusOK, policy)
}

type adjustRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// AdjustBalance records a manual ledger entry
func (h *AdminHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req adjustRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.rewardService.Adjust(id, req.Amount, req.Reason)
	if err != nil {
		respondWithServiceError(w, "Error adjusting balance", err)
		return
	}

	log.Printf("Balance of student %d adjusted by %d by %s", id, req.Amount, adminName(r))
	respondJSON(w, http.StatusCreated, entry)
}

// GetRewardHistory returns a student's balance and recent ledger entries
func (h *AdminHandler) GetRewardHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.rewardService.History(id, parseLimit(r))
	if err != nil {
		respondWithServiceError(w, "Error loading reward history", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ReplayLedger checks a student's balance against the ledger
func (h *AdminHandler) ReplayLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	report, err := h.rewardService.Replay(id)
	if err != nil {
		respondWithServiceError(w, "Error replaying ledger", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Backup

// ExportDatabase exports the database to JSON for download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("wordtest_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if _, err := h.backupService.ExportToWriter(w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}

	log.Printf("Database exported by admin %s", adminName(r))
}

// ImportDatabase restores a backup from the request body. ?clear=true empties
// the database first.
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	clearData := r.URL.Query().Get("clear") == "true"
	if clearData {
		log.Printf("Admin %s requested database clear before import", adminName(r))
		if err := h.backupService.Clear(); err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to clear database", "Error clearing database", err)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := h.backupService.ImportFromReader(r.Body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to import database", "Error importing database", err)
		return
	}

	log.Printf("Database imported successfully by admin %s (clear_data=%v)", adminName(r), clearData)
	w.WriteHeader(http.StatusNoContent)
}
