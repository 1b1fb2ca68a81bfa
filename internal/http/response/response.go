package response

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type errorBody struct {
	Errors []errorItem `json:"errors"`
}

type errorItem struct {
	Message string `json:"message"`
}

// JSON writes data as the response body verbatim. Handlers own their body
// shapes; there is no envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeHeaders(w, r)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes the error list shape {"errors":[{"message":...}]}.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeHeaders(w, r)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Errors: []errorItem{{Message: message}}})
}

// NoContent writes a bodiless response, keeping the request-id header.
func NoContent(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func writeHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	setRequestID(w, r)
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	id := chimiddleware.GetReqID(r.Context())
	if id == "" {
		id = r.Header.Get("X-Request-Id")
	}
	if id != "" {
		w.Header().Set("X-Request-Id", id)
	}
}
