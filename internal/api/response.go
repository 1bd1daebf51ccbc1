package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"textdigest/internal/domain"
)

// createdAtLayout is ISO 8601 with microseconds, Z for UTC.
const createdAtLayout = "2006-01-02T15:04:05.000000Z07:00"

type recordResponse struct {
	ID           int64   `json:"id"`
	OriginalText string  `json:"original_text"`
	Summary      *string `json:"summary"`
	BulletPoints *string `json:"bullet_points"`
	CreatedAt    string  `json:"created_at"`
}

func newRecordResponse(r domain.Record) recordResponse {
	return recordResponse{
		ID:           r.ID,
		OriginalText: r.OriginalText,
		Summary:      r.Summary,
		BulletPoints: r.BulletPoints,
		CreatedAt:    r.CreatedAt.UTC().Format(createdAtLayout),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type detailResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

type tokenPairResponse struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

type accessResponse struct {
	Access string `json:"access"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeJSON(w, http.StatusMethodNotAllowed, detailResponse{
		Detail: fmt.Sprintf("Method %q not allowed.", r.Method),
	})
}

func writeUnauthorized(w http.ResponseWriter, body detailResponse) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeJSON(w, http.StatusUnauthorized, body)
}
