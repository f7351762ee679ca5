package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/quiz"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/service"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body errorBody
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", validation.ValidationError{Field: "name", Message: "name is required"}, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("loading: %w", service.ErrStudentNotFound), http.StatusNotFound},
		{"missing session", quiz.ErrSessionNotFound, http.StatusNotFound},
		{"nothing to study", service.ErrNothingToStudy, http.StatusConflict},
		{"finalize too early", quiz.ErrNotComplete, http.StatusConflict},
		{"bad login", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"disabled", service.ErrAccountDisabled, http.StatusForbidden},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, "test", tt.err)
			if recorder.Code != tt.status {
				t.Errorf("status = %d, want %d", recorder.Code, tt.status)
			}
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	respondWithServiceError(recorder, "Error loading", errors.New("dial tcp 10.0.0.5:5432"))

	if strings.Contains(recorder.Body.String(), "10.0.0.5") {
		t.Errorf("response leaked driver error: %s", recorder.Body.String())
	}
	if !strings.Contains(buf.String(), "10.0.0.5") {
		t.Errorf("driver error was not logged: %q", buf.String())
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	recorder := httptest.NewRecorder()
	if decodeJSON(recorder, req, &dst) {
		t.Fatal("decodeJSON() accepted an unknown field")
	}
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	if !decodeJSON(httptest.NewRecorder(), req, &dst) || dst.Name != "a" {
		t.Errorf("decodeJSON() = %+v, want name a", dst)
	}
}
