package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chepyr/go-kanban/shared"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.168.1.1:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		mockRepo       *MockUserRepository
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Successful registration",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": "strongpass", "confirmPassword": "strongpass"}`,
			mockRepo:       NewMockUserRepository(),
			expectedStatus: http.StatusCreated,
			expectedBody:   `"email":"test@example.com"`,
		},
		{
			name:           "Invalid method (GET instead of POST)",
			method:         http.MethodGet,
			mockRepo:       NewMockUserRepository(),
			expectedStatus: http.StatusMethodNotAllowed,
			expectedBody:   `"error":"Method not allowed"`,
		},
		{
			name:           "Invalid JSON",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": }`,
			mockRepo:       NewMockUserRepository(),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"Invalid JSON body"`,
		},
		{
			name:           "Invalid email format",
			method:         http.MethodPost,
			body:           `{"email": "invalid", "password": "strongpass", "confirmPassword": "strongpass"}`,
			mockRepo:       NewMockUserRepository(),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"email":`,
		},
		{
			name:           "Password too short",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": "abc", "confirmPassword": "abc"}`,
			mockRepo:       NewMockUserRepository(),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"password":`,
		},
		{
			name:           "Passwords do not match",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": "strongpass", "confirmPassword": "strongpas"}`,
			mockRepo:       NewMockUserRepository(),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"confirmPassword":"Passwords do not match"`,
		},
		{
			name:           "Email already exists",
			method:         http.MethodPost,
			body:           `{"email": "test@example.com", "password": "strongpass", "confirmPassword": "strongpass"}`,
			mockRepo:       setupMockUser("test@example.com", "whatever1"),
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"Email already registered"`,
		},
		{
			name:   "Repository failure",
			method: http.MethodPost,
			body:   `{"email": "test@example.com", "password": "strongpass", "confirmPassword": "strongpass"}`,
			mockRepo: &MockUserRepository{
				users:     map[string]*models.User{},
				createErr: errors.New("connection reset"),
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"Cannot save user"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			newTestHandler(tt.mockRepo).Routes().ServeHTTP(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d, body: %s", tt.expectedStatus, status, rr.Body.String())
			}
			body := strings.TrimSpace(rr.Body.String())
			if !strings.Contains(body, tt.expectedBody) {
				t.Errorf("Expected body to contain %q, got %q", tt.expectedBody, body)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", ct)
			}
		})
	}
}

func TestRegister_ReturnsUsableSession(t *testing.T) {
	repo := NewMockUserRepository()
	h := newTestHandler(repo)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	rr := postJSON(h.Routes(), "/register",
		`{"email": "Ada@Example.com", "password": "strongpass", "confirmPassword": "strongpass", "displayName": " Ada "}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var session models.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.Equal(t, "Ada", session.User.DisplayName)
	assert.Equal(t, fixed.Add(time.Hour), session.ExpiresAt)
	assert.NotEmpty(t, session.Token)
	assert.NotContains(t, rr.Body.String(), "passwordHash")
	assert.NotContains(t, rr.Body.String(), "$2a$")
}

func TestRegister_RateLimited(t *testing.T) {
	h := newTestHandler(NewMockUserRepository())
	h.RateLimiter = shared.NewRateLimiter(2, time.Minute)
	defer h.RateLimiter.Stop()
	routes := h.Routes()

	for i := 0; i < 2; i++ {
		body := fmt.Sprintf(`{"email": "u%d@example.com", "password": "strongpass", "confirmPassword": "strongpass"}`, i)
		require.Equal(t, http.StatusCreated, postJSON(routes, "/register", body).Code)
	}
	rr := postJSON(routes, "/register", `{"email": "u3@example.com", "password": "strongpass", "confirmPassword": "strongpass"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "Too many register attempts")

	// Login keeps its own budget.
	rr = postJSON(routes, "/login", `{"email": "u0@example.com", "password": "strongpass"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRegisterConcurrent(t *testing.T) {
	mockRepo := NewMockUserRepository()
	routes := newTestHandler(mockRepo).Routes()

	numGoroutines := 20
	var wg sync.WaitGroup
	codes := make([]int, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"email": "concurrent%d@example.com", "password": "strongpass", "confirmPassword": "strongpass"}`, idx)
			codes[idx] = postJSON(routes, "/register", body).Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusCreated {
			t.Errorf("registration %d failed: status %d", i, code)
		}
	}
	if len(mockRepo.users) != numGoroutines {
		t.Errorf("Expected %d users, got %d", numGoroutines, len(mockRepo.users))
	}
}
