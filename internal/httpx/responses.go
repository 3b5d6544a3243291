package httpx

import (
	"encoding/json"
	"net/http"
)

// DetailResponse is the error body shape used across the API:
// {"detail": "..."} with an optional field-level errors list on 400s.
type DetailResponse struct {
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func JSONCreated(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusCreated, v)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Detail(w http.ResponseWriter, statusCode int, detail string) {
	JSON(w, statusCode, DetailResponse{Detail: detail})
}

func ValidationFailed(w http.ResponseWriter, errs []FieldError) {
	JSON(w, http.StatusBadRequest, DetailResponse{
		Detail: "Invalid request.",
		Errors: errs,
	})
}

func NotFound(w http.ResponseWriter) {
	Detail(w, http.StatusNotFound, "Not found.")
}
