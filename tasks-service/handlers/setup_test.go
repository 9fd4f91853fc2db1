package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/chepyr/go-kanban/tasks-service/db"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test_secret_that_is_long_enough_1234"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	conn, err := rowstore.Connect("sqlite3", "file::memory:?_foreign_keys=on", rowstore.SQLiteConnectionConfig())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, "sqlite3"))

	store := rowstore.New(conn, "sqlite3")
	h := &Handler{
		BoardRepo: db.NewBoardRepository(store),
		ListRepo:  db.NewListRepository(store),
		CardRepo:  db.NewCardRepository(store),
		WSHub:     NewWSHub(zap.NewNop()),
		Metrics:   NewMetrics(),
		JWTSecret: []byte(testSecret),
		Logger:    zap.NewNop(),
	}
	t.Cleanup(h.WSHub.Close)
	return h
}

func bearerForUser(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a request through the full router. A nil user sends no token.
func do(t *testing.T, h *Handler, method, path string, user *uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+bearerForUser(t, *user))
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body=%s", rec.Body.String())
	return out
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func seedBoard(t *testing.T, h *Handler, owner uuid.UUID, name string) *models.Board {
	t.Helper()
	board, err := h.BoardRepo.Create(context.Background(), models.CreateBoardInput{Name: name}, owner)
	require.NoError(t, err)
	return board
}

func seedList(t *testing.T, h *Handler, boardID uuid.UUID, title string) *models.List {
	t.Helper()
	list, err := h.ListRepo.Create(context.Background(), models.CreateListInput{Title: title, BoardID: boardID})
	require.NoError(t, err)
	return list
}

func seedCard(t *testing.T, h *Handler, listID uuid.UUID, title string, p models.Priority) *models.Card {
	t.Helper()
	card, err := h.CardRepo.Create(context.Background(), models.CreateCardInput{Title: title, ListID: listID, Priority: p})
	require.NoError(t, err)
	return card
}

func bearerRequest(t *testing.T, method, path string, user uuid.UUID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+bearerForUser(t, user))
	return req
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}
