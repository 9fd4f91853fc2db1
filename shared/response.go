// Package shared holds HTTP plumbing used by both services.
package shared

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/chepyr/go-kanban/shared/models"
)

const MaxBodyBytes = 1 << 20 // 1MB

type errorResponse struct {
	Error  string             `json:"error"`
	Fields models.FieldErrors `json:"fields,omitempty"`
}

func SendError(w http.ResponseWriter, message string, status int) {
	SendJSON(w, status, errorResponse{Error: message})
}

// SendValidationError writes a 400 carrying the per-field messages.
func SendValidationError(w http.ResponseWriter, err *models.ValidationError) {
	SendJSON(w, http.StatusBadRequest, errorResponse{Error: "Validation failed", Fields: err.Fields})
}

func SendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func IsJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(ct), "application/json")
}

// DecodeJSON checks the content type, caps the body and decodes it into dst.
// On failure it has already written the response.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !IsJSONContentType(r) {
		SendError(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		SendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// ClientIP prefers the first X-Forwarded-For hop over RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
