package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOrigin_EmptyAllowsAll(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://any.example")
	if !h.checkOrigin(req) {
		t.Fatalf("checkOrigin should allow when no origins are configured")
	}
}

func TestCheckOrigin_ListAllowAndDeny(t *testing.T) {
	h := &Handler{AllowedOrigins: []string{"https://a.example", "https://b.example"}}
	allowReq := httptest.NewRequest(http.MethodGet, "/", nil)
	allowReq.Header.Set("Origin", "https://b.example")
	denyReq := httptest.NewRequest(http.MethodGet, "/", nil)
	denyReq.Header.Set("Origin", "https://c.example")

	if !h.checkOrigin(allowReq) {
		t.Fatalf("expected allow for https://b.example")
	}
	if h.checkOrigin(denyReq) {
		t.Fatalf("expected deny for https://c.example")
	}
}

func TestSendStoreError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"not found", &models.NotFoundError{Entity: "card", ID: "42"}, http.StatusNotFound, "card with id 42 not found"},
		{"wrapped not found", fmt.Errorf("load: %w", &models.NotFoundError{Entity: "list", ID: "7"}), http.StatusNotFound, "list with id 7"},
		{"unauthorized", models.ErrUnauthorized, http.StatusForbidden, "Forbidden"},
		{"validation", models.NewValidationError("name", "Board name is required"), http.StatusBadRequest, `"fields":{"name":"Board name is required"}`},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "timed out"},
		{"repository", &models.RepositoryError{Op: "boards.get", Code: "08006", Message: "connection failure"}, http.StatusInternalServerError, "Internal server error"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{}
			rec := httptest.NewRecorder()
			h.sendStoreError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "connection failure")
		})
	}
}

type fakeExporter struct {
	exported *models.Board
	err      error
}

func (f *fakeExporter) Export(ctx context.Context, board *models.Board) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.exported = board
	return "boards/" + board.ID.String() + "/latest.json", nil
}

func TestExportBoard(t *testing.T) {
	h := newTestHandler(t)
	owner := uuid.New()
	board := seedBoard(t, h, owner, "Exported")
	list := seedList(t, h, board.ID, "Todo")
	seedCard(t, h, list.ID, "Card", models.PriorityMedium)
	path := "/boards/" + board.ID.String() + "/export"

	rec := do(t, h, http.MethodPost, path, &owner, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	exporter := &fakeExporter{}
	h.Exporter = exporter
	rec = do(t, h, http.MethodPost, path, &owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code, "body=%s", rec.Body.String())
	assert.Equal(t, "boards/"+board.ID.String()+"/latest.json", decode[map[string]string](t, rec)["key"])
	require.NotNil(t, exporter.exported)
	require.Len(t, exporter.exported.Lists, 1)
	assert.Len(t, exporter.exported.Lists[0].Cards, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)
	user := uuid.New()
	do(t, h, http.MethodGet, "/boards", &user, nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `path="/boards`)
}

func TestWebSocket_ReceivesBoardEvents(t *testing.T) {
	h := newTestHandler(t)
	owner := uuid.New()
	board := seedBoard(t, h, owner, "Live board")
	list := seedList(t, h, board.ID, "Todo")

	server := httptest.NewServer(h.Routes())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/ws?board_id=" + board.ID.String() + "&token=" + bearerForUser(t, owner)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.WSHub.Subscribers(board.ID) == 1 },
		2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/lists/"+list.ID.String()+"/cards",
		strings.NewReader(`{"title":"Pushed card"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerForUser(t, owner))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type    string      `json:"type"`
		BoardID uuid.UUID   `json:"boardId"`
		Payload models.Card `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, EventCardCreated, event.Type)
	assert.Equal(t, board.ID, event.BoardID)
	assert.Equal(t, "Pushed card", event.Payload.Title)
}

// checks that a stranger cannot subscribe to someone else's board
func TestWebSocket_ForeignBoard(t *testing.T) {
	h := newTestHandler(t)
	board := seedBoard(t, h, uuid.New(), "Private")
	stranger := uuid.New()

	rec := do(t, h, http.MethodGet, "/ws?board_id="+board.ID.String(), &stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodGet, "/ws?board_id=nope", &stranger, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWSHub_CloseDisconnects(t *testing.T) {
	h := newTestHandler(t)
	owner := uuid.New()
	board := seedBoard(t, h, owner, "Board")

	server := httptest.NewServer(h.Routes())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") +
		"/ws?board_id=" + board.ID.String() + "&token=" + bearerForUser(t, owner)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.WSHub.Subscribers(board.ID) == 1 },
		2*time.Second, 10*time.Millisecond)

	h.WSHub.Close()
	assert.Equal(t, 0, h.WSHub.Subscribers(board.ID))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
