package handlers

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/security"
)

type fakeValidator map[string]*models.Session

func (f fakeValidator) ValidateToken(token string) (*models.Session, error) {
	if s, ok := f[token]; ok {
		return s, nil
	}
	return nil, security.ErrInvalidToken
}

var tokens = fakeValidator{
	"admin-token":   {SubjectID: 1, Role: models.RoleAdmin, Name: "Head Teacher"},
	"student-token": {SubjectID: 7, Role: models.RoleStudent, Name: "Seo-yeon"},
}

func echoSubject(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]int64{"subject": session.SubjectID})
}

func TestRequireAuth(t *testing.T) {
	m := NewMiddleware(tokens, nil)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic admin-token", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer student-token", http.StatusOK},
		{"scheme is case-insensitive", "bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			m.RequireAuth(echoSubject)(recorder, req)

			if recorder.Code != tt.want {
				t.Errorf("status = %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	m := NewMiddleware(tokens, nil)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		token   string
		want    int
	}{
		{"admin on admin route", m.RequireAdmin(echoSubject), "admin-token", http.StatusOK},
		{"student on admin route", m.RequireAdmin(echoSubject), "student-token", http.StatusForbidden},
		{"student on student route", m.RequireStudent(echoSubject), "student-token", http.StatusOK},
		{"admin on student route", m.RequireStudent(echoSubject), "admin-token", http.StatusForbidden},
		{"anonymous on admin route", m.RequireAdmin(echoSubject), "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			recorder := httptest.NewRecorder()

			tt.handler(recorder, req)

			if recorder.Code != tt.want {
				t.Errorf("status = %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := security.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	m := NewMiddleware(tokens, limiter)

	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	handler := m.RateLimit(ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/student/login", nil)
		req.RemoteAddr = "203.0.113.9:5123"
		recorder := httptest.NewRecorder()
		handler(recorder, req)
		codes = append(codes, recorder.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent {
		t.Errorf("first two attempts = %v, want allowed", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third attempt = %d, want 429", codes[2])
	}

	// another address has its own budget
	req := httptest.NewRequest(http.MethodPost, "/api/auth/student/login", nil)
	req.RemoteAddr = "198.51.100.4:80"
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	if recorder.Code != http.StatusNoContent {
		t.Errorf("other client = %d, want allowed", recorder.Code)
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pot", nil))

	if !strings.Contains(buf.String(), "GET /pot 418") {
		t.Errorf("log = %q, want method, path and status", buf.String())
	}
}
