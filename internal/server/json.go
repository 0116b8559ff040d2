package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bighelpmob/missionhub/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ValidationErrorResponse is returned with 422 when a record is invalid.
type ValidationErrorResponse struct {
	Error    string            `json:"error"`
	Errors   validation.Errors `json:"errors"`
	Messages []string          `json:"messages"`
}

func writeValidation(w http.ResponseWriter, errs validation.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:    "validation failed",
		Errors:   errs,
		Messages: errs.FullMessages(),
	})
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
