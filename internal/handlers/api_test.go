package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/database"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/quiz"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/repository"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/security"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/service"
)

const (
	testAdminEmail    = "head@academy.example"
	testAdminPassword = "long-enough-secret"
)

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping API integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	wordRepo := repository.NewWordRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)

	authService := service.NewAuthService(userRepo, studentRepo, security.NewTokenIssuer("api-test-secret", time.Hour))
	studentService := service.NewStudentService(studentRepo, classRepo)
	curriculumService := service.NewCurriculumService(db, curriculumRepo, wordRepo, time.UTC)
	rewardService := service.NewRewardService(db, repository.NewRewardRepository(db), repository.NewSettingsRepository(db), nil, time.UTC)
	testService := service.NewTestService(db, quiz.NewStore(), curriculumService, rewardService,
		repository.NewTestResultRepository(db), curriculumRepo, wordRepo)
	gameService := service.NewGameService(db, repository.NewGameRepository(db), rewardService)

	if err := authService.EnsureAdmin(testAdminEmail, testAdminPassword, "Head Teacher"); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}

	router := NewRouter(
		NewMiddleware(authService, nil),
		NewAuthHandler(authService, studentService),
		NewLearnerHandler(curriculumService, testService, rewardService, gameService),
		NewAdminHandler(AdminServices{
			Auth:       authService,
			Students:   studentService,
			Classes:    service.NewClassService(classRepo),
			Words:      service.NewWordService(db, wordRepo),
			Curriculum: curriculumService,
			Rewards:    rewardService,
			Tests:      testService,
			Backup:     service.NewBackupService(db),
		}),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiClient{t: t, server: server}
}

// do sends a JSON request and decodes the response into out when non-nil
func (c *apiClient) do(method, path, token string, body interface{}, wantStatus int, out interface{}) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal %s %s: %v", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.server.Client().Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s = %d, want %d: %s", method, path, resp.StatusCode, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
}

func (c *apiClient) adminToken() string {
	var login service.LoginResult
	c.do(http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"email": testAdminEmail, "password": testAdminPassword,
	}, http.StatusOK, &login)
	return login.Token
}

func TestLoginFailures(t *testing.T) {
	api := newAPI(t)

	api.do(http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"email": testAdminEmail, "password": "wrong-password",
	}, http.StatusUnauthorized, nil)
	api.do(http.MethodPost, "/api/auth/student/login", "", map[string]string{
		"login_handle": "nobody", "password": "whatever",
	}, http.StatusUnauthorized, nil)
	api.do(http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"email": testAdminEmail, "password": testAdminPassword, "remember": "yes",
	}, http.StatusBadRequest, nil)
	api.do(http.MethodGet, "/api/me", "", nil, http.StatusUnauthorized, nil)
}

func TestStudyDayOverHTTP(t *testing.T) {
	api := newAPI(t)
	admin := api.adminToken()

	var me meResponse
	api.do(http.MethodGet, "/api/me", admin, nil, http.StatusOK, &me)
	if me.User == nil || me.User.Email != testAdminEmail {
		t.Fatalf("GET /api/me = %+v, want the admin account", me)
	}

	var class models.Class
	api.do(http.MethodPost, "/api/admin/classes", admin, map[string]string{"name": "Monday Juniors"}, http.StatusCreated, &class)
	api.do(http.MethodPost, "/api/admin/classes", admin, map[string]string{"name": "Monday Juniors"}, http.StatusConflict, nil)

	var creds models.StudentCredentials
	api.do(http.MethodPost, "/api/admin/students", admin, map[string]interface{}{
		"display_name": "Ji-ho Park", "class_id": class.ID,
	}, http.StatusCreated, &creds)
	if creds.Password == "" || creds.Student == nil || creds.Student.LoginHandle == "" {
		t.Fatalf("CreateStudent credentials = %+v, want generated handle and password", creds)
	}
	sid := creds.Student.ID

	english := make(map[int64]string)
	for i := 1; i <= 12; i++ {
		var word models.Word
		api.do(http.MethodPost, "/api/admin/words", admin, map[string]interface{}{
			"book_name": "Voca 1000", "english": fmt.Sprintf("word%d", i), "korean": fmt.Sprintf("뜻%d", i),
		}, http.StatusCreated, &word)
		if word.Position != i {
			t.Fatalf("word %d got position %d", i, word.Position)
		}
		english[word.ID] = word.English
	}

	var books []models.BookSummary
	api.do(http.MethodGet, "/api/admin/books", admin, nil, http.StatusOK, &books)
	if len(books) != 1 || books[0].WordCount != 12 {
		t.Fatalf("GET /api/admin/books = %+v", books)
	}

	base := fmt.Sprintf("/api/admin/students/%d/curriculum", sid)
	api.do(http.MethodPost, base+"/slots", admin, map[string]string{"book": "Voca 1000"}, http.StatusCreated, nil)
	api.do(http.MethodPost, base+"/slots", admin, map[string]string{"book": "No Such Book"}, http.StatusNotFound, nil)
	api.do(http.MethodPut, base+"/words-per-session", admin, map[string]int{"words_per_session": 5}, http.StatusOK, nil)
	api.do(http.MethodPut, base+"/study-days", admin, map[string][]int{"days": {9}}, http.StatusBadRequest, nil)

	var login service.LoginResult
	api.do(http.MethodPost, "/api/auth/student/login", "", map[string]string{
		"login_handle": creds.Student.LoginHandle, "password": creds.Password,
	}, http.StatusOK, &login)
	student := login.Token

	api.do(http.MethodGet, "/api/admin/students", student, nil, http.StatusForbidden, nil)
	api.do(http.MethodPost, "/api/sessions", admin, map[string]string{}, http.StatusForbidden, nil)

	var view quiz.SessionView
	api.do(http.MethodPost, "/api/sessions", student, map[string]string{"book": "Voca 1000"}, http.StatusCreated, &view)
	if view.Range != (models.WordRange{Start: 1, End: 5}) || len(view.Items) != 5 {
		t.Fatalf("first session range = %+v with %d items, want 1-5", view.Range, len(view.Items))
	}
	if !view.ReviewRange.Empty() {
		t.Errorf("first session review range = %+v, want empty", view.ReviewRange)
	}

	path := "/api/sessions/" + view.ID
	api.do(http.MethodPost, path+"/finalize", student, nil, http.StatusConflict, nil)

	answers := make([]quiz.Answer, 0, len(view.Items))
	for _, item := range view.Items {
		answers = append(answers, quiz.Answer{WordID: item.WordID, Text: english[item.WordID]})
	}
	var submitted submitResponse
	api.do(http.MethodPost, path+"/submit", student, map[string]interface{}{"answers": answers}, http.StatusOK, &submitted)
	if submitted.Result.Phase != quiz.PhaseComplete || len(submitted.Result.Wrong) != 0 {
		t.Fatalf("submit result = %+v, want complete with no wrong answers", submitted.Result)
	}

	var first, second models.CompletionOutcome
	api.do(http.MethodPost, path+"/finalize", student, nil, http.StatusOK, &first)
	api.do(http.MethodPost, path+"/finalize", student, nil, http.StatusOK, &second)
	if first.NewIndex != 5 || first.Result == nil || first.Result.Score != 100 {
		t.Fatalf("finalize = %+v, want progress 5 and a perfect score", first)
	}
	if second.Result.ID != first.Result.ID {
		t.Errorf("second finalize recorded result %d, want %d", second.Result.ID, first.Result.ID)
	}

	var results []models.TestResult
	api.do(http.MethodGet, "/api/me/results", student, nil, http.StatusOK, &results)
	if len(results) != 1 {
		t.Errorf("GET /api/me/results returned %d results, want 1", len(results))
	}

	var store models.CurriculumStore
	api.do(http.MethodGet, "/api/me/curriculum", student, nil, http.StatusOK, &store)
	if store.BookProgress["Voca 1000"] != 5 {
		t.Errorf("progress = %d, want 5", store.BookProgress["Voca 1000"])
	}

	var next quiz.SessionView
	api.do(http.MethodPost, "/api/sessions", student, map[string]string{}, http.StatusCreated, &next)
	if next.Range.Start != 6 {
		t.Errorf("next session starts at %d, want 6", next.Range.Start)
	}
	api.do(http.MethodDelete, "/api/sessions/"+next.ID, student, nil, http.StatusNoContent, nil)
	api.do(http.MethodGet, "/api/sessions/"+next.ID, student, nil, http.StatusNotFound, nil)
}

func TestRewardsOverHTTP(t *testing.T) {
	api := newAPI(t)
	admin := api.adminToken()

	var creds models.StudentCredentials
	api.do(http.MethodPost, "/api/admin/students", admin, map[string]string{"display_name": "Ha-eun Lee"}, http.StatusCreated, &creds)
	sid := creds.Student.ID

	var login service.LoginResult
	api.do(http.MethodPost, "/api/auth/student/login", "", map[string]string{
		"login_handle": creds.Student.LoginHandle, "password": creds.Password,
	}, http.StatusOK, &login)
	student := login.Token

	rewards := fmt.Sprintf("/api/admin/students/%d/rewards", sid)
	api.do(http.MethodPost, rewards+"/adjust", admin, map[string]interface{}{"amount": 0, "reason": "nothing"}, http.StatusBadRequest, nil)
	api.do(http.MethodPost, rewards+"/adjust", admin, map[string]interface{}{"amount": -5, "reason": "too much"}, http.StatusConflict, nil)

	var entry models.LedgerEntry
	api.do(http.MethodPost, rewards+"/adjust", admin, map[string]interface{}{"amount": 120, "reason": "Class quiz winner"}, http.StatusCreated, &entry)
	if entry.BalanceAfter != 120 {
		t.Errorf("balance after adjust = %d, want 120", entry.BalanceAfter)
	}

	var outcome models.GameOutcome
	api.do(http.MethodPost, "/api/games/speed_quiz/results", student, map[string][]bool{"answers": {true, true, false}}, http.StatusCreated, &outcome)
	if outcome.Score == nil || outcome.Score.Score != service.SpeedQuizScore([]bool{true, true, false}) {
		t.Errorf("game outcome = %+v", outcome)
	}
	api.do(http.MethodPost, "/api/games/tetris/results", student, map[string][]bool{"answers": {true}}, http.StatusNotFound, nil)
	api.do(http.MethodPost, "/api/games/matching/results", student, map[string]int{"pairs": 4, "moves": 2}, http.StatusBadRequest, nil)

	var board []models.LeaderboardEntry
	api.do(http.MethodGet, "/api/games/speed_quiz/leaderboard", admin, nil, http.StatusOK, &board)
	if len(board) != 1 || board[0].StudentID != sid {
		t.Errorf("leaderboard = %+v, want the one player", board)
	}

	var summary models.RewardSummary
	api.do(http.MethodGet, "/api/me/rewards", student, nil, http.StatusOK, &summary)
	if summary.Balance != outcome.Balance {
		t.Errorf("balance = %d, want %d", summary.Balance, outcome.Balance)
	}

	var report service.ReplayReport
	api.do(http.MethodGet, rewards+"/replay", admin, nil, http.StatusOK, &report)
	if !report.Consistent || report.Balance != summary.Balance {
		t.Errorf("replay = %+v, want consistent with balance %d", report, summary.Balance)
	}

	var policy models.RewardPolicy
	api.do(http.MethodGet, "/api/admin/rewards/policy", admin, nil, http.StatusOK, &policy)
	policy.DailyGameCap = 500
	api.do(http.MethodPut, "/api/admin/rewards/policy", admin, policy, http.StatusOK, nil)
	var stored models.RewardPolicy
	api.do(http.MethodGet, "/api/admin/rewards/policy", admin, nil, http.StatusOK, &stored)
	if stored.DailyGameCap != 500 {
		t.Errorf("daily game cap = %d, want 500", stored.DailyGameCap)
	}

	// a deactivated student's token stops working
	api.do(http.MethodPut, fmt.Sprintf("/api/admin/students/%d", sid), admin, map[string]interface{}{
		"display_name": "Ha-eun Lee", "active": false,
	}, http.StatusOK, nil)
	api.do(http.MethodGet, "/api/me/rewards", student, nil, http.StatusForbidden, nil)
}

func TestBackupExportOverHTTP(t *testing.T) {
	api := newAPI(t)
	admin := api.adminToken()

	api.do(http.MethodPost, "/api/admin/classes", admin, map[string]string{"name": "Saturday Seniors"}, http.StatusCreated, nil)

	var backup service.BackupData
	api.do(http.MethodGet, "/api/admin/backup", admin, nil, http.StatusOK, &backup)
	if len(backup.Users) != 1 || len(backup.Classes) != 1 {
		t.Errorf("backup has %d users and %d classes, want 1 and 1", len(backup.Users), len(backup.Classes))
	}
}
