package handlers

import (
	"log"
	"net/http"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/models"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService    *service.AuthService
	studentService *service.StudentService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, studentService *service.StudentService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		studentService: studentService,
	}
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type studentLoginRequest struct {
	Handle   string `json:"login_handle"`
	Password string `json:"password"`
}

// AdminLogin exchanges staff credentials for a bearer token
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.AdminLogin(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, "Error during admin login", err)
		return
	}

	log.Printf("Admin %d logged in", result.Session.SubjectID)
	respondJSON(w, http.StatusOK, result)
}

// StudentLogin exchanges a login handle and password for a bearer token
func (h *AuthHandler) StudentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.StudentLogin(req.Handle, req.Password)
	if err != nil {
		respondWithServiceError(w, "Error during student login", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

type meResponse struct {
	Session *models.Session `json:"session"`
	User    *models.User    `json:"user,omitempty"`
	Student *models.Student `json:"student,omitempty"`
}

// Me describes the caller
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	resp := meResponse{Session: session}
	if session.IsAdmin() {
		user, err := h.authService.GetUser(session.SubjectID)
		if err != nil {
			respondWithServiceError(w, "Error loading user", err)
			return
		}
		resp.User = user
	} else {
		student, err := h.studentService.GetStudent(session.SubjectID)
		if err != nil {
			respondWithServiceError(w, "Error loading student", err)
			return
		}
		resp.Student = student
	}

	respondJSON(w, http.StatusOK, resp)
}
