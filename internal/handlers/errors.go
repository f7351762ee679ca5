package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/quiz"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/security"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/service"
	"github.com/stp282-cyber/wordtest-oracle-sub001/internal/validation"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorBody{Error: userMsg})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}

// errorStatus maps service errors to HTTP statuses
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{security.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrAccountDisabled, http.StatusForbidden},

	{service.ErrStudentNotFound, http.StatusNotFound},
	{service.ErrClassNotFound, http.StatusNotFound},
	{service.ErrWordNotFound, http.StatusNotFound},
	{service.ErrSlotNotFound, http.StatusNotFound},
	{service.ErrQueueEntry, http.StatusNotFound},
	{service.ErrBookNotFound, http.StatusNotFound},
	{service.ErrUnknownGame, http.StatusNotFound},
	{quiz.ErrSessionNotFound, http.StatusNotFound},

	{service.ErrNothingToStudy, http.StatusConflict},
	{service.ErrBookNotActive, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrHandleTaken, http.StatusConflict},
	{service.ErrClassNameTaken, http.StatusConflict},
	{service.ErrPositionTaken, http.StatusConflict},
	{service.ErrInsufficientBalance, http.StatusConflict},
	{quiz.ErrNotComplete, http.StatusConflict},
	{quiz.ErrComplete, http.StatusConflict},

	{service.ErrInvalidAmount, http.StatusBadRequest},
}

// respondWithServiceError answers with the status matching err. Unknown
// errors are logged and hidden behind a generic 500.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: ve.Message, Field: ve.Field})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respondWithError(w, e.status, e.err.Error(), "", nil)
			return
		}
	}

	respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
}
