package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Message: msg})
}

// writeError maps the error taxonomy onto HTTP statuses. Technical errors
// are logged with their cause and answered with a generic message.
func writeError(w http.ResponseWriter, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeMessage(w, statusFor(de.Kind), de.Message)
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		log.Printf("[http] %s: %v", te.Code, te.Err)
		writeMessage(w, http.StatusInternalServerError, te.Message)
		return
	}

	log.Printf("[http] unexpected error: %v", err)
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

func statusFor(kind usecase.ErrorKind) int {
	switch kind {
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindConflict, usecase.KindInvalidInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// caller returns the identity set by middleware.Identity.
func caller(w http.ResponseWriter, r *http.Request) (entity.Caller, bool) {
	c, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Missing or invalid caller identity")
	}
	return c, ok
}

// decode reads an optional JSON body; an empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// outcome labels a lifecycle result for the transition counter.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var de *usecase.DomainError
	if errors.As(err, &de) {
		return string(de.Kind)
	}
	return "error"
}

func record(op string, err error) {
	middleware.RecordTransition(op, outcome(err))
}
