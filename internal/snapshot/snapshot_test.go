package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chepyr/go-kanban/shared/models"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryStore) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func sampleBoard() *models.Board {
	boardID, todoID, doneID := uuid.New(), uuid.New(), uuid.New()
	return &models.Board{
		ID:      boardID,
		Name:    "Release",
		OwnerID: uuid.New(),
		Lists: []*models.List{
			{ID: doneID, Title: "Done", BoardID: boardID, Position: 1},
			{ID: todoID, Title: "Todo", BoardID: boardID, Position: 0, Cards: []*models.Card{
				{ID: uuid.New(), Title: "Second", ListID: todoID, Position: 4, Priority: models.PriorityLow},
				{ID: uuid.New(), Title: "First", ListID: todoID, Position: 1, Priority: models.PriorityHigh,
					Description: "**ship it** <script>alert(1)</script>"},
			}},
		},
	}
}

func TestExportAndLoad(t *testing.T) {
	store := newMemoryStore()
	exp := NewExporter(store, "snapshots")
	exp.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	board := sampleBoard()

	key, err := exp.Export(context.Background(), board)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "boards/"+board.ID.String()+"/20240601T120000"))
	assert.Contains(t, store.objects, "snapshots/"+key)
	assert.Contains(t, store.objects, "snapshots/"+LatestKey(board.ID))

	snap, err := exp.Load(context.Background(), board.ID)
	require.NoError(t, err)
	assert.Equal(t, board.ID, snap.Board.ID)
	assert.Equal(t, "Release", snap.Board.Name)

	require.Len(t, snap.Board.Lists, 2)
	assert.Equal(t, "Todo", snap.Board.Lists[0].Title)
	assert.Equal(t, "Done", snap.Board.Lists[1].Title)
	assert.Empty(t, snap.Board.Lists[1].Cards)

	cards := snap.Board.Lists[0].Cards
	require.Len(t, cards, 2)
	assert.Equal(t, "First", cards[0].Title)
	assert.Contains(t, cards[0].DescriptionHTML, "<strong>ship it</strong>")
	assert.NotContains(t, cards[0].DescriptionHTML, "<script>")
	assert.Equal(t, "", cards[1].DescriptionHTML)

	// the caller's board is left untouched
	assert.Equal(t, "Done", board.Lists[0].Title)
}

func TestLoad_Missing(t *testing.T) {
	exp := NewExporter(newMemoryStore(), "snapshots")
	_, err := exp.Load(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestExport_PutFails(t *testing.T) {
	store := newMemoryStore()
	store.putErr = errors.New("access denied")
	exp := NewExporter(store, "snapshots")

	_, err := exp.Export(context.Background(), sampleBoard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestRenderer(t *testing.T) {
	r := NewRenderer()
	tests := []struct {
		name     string
		in       string
		contains []string
		excludes []string
	}{
		{name: "empty", in: ""},
		{name: "emphasis", in: "_note_ and `code`", contains: []string{"<em>note</em>", "<code>code</code>"}},
		{name: "task list", in: "- [x] done", contains: []string{"<li>", "done"}},
		{name: "raw html dropped", in: `<img src=x onerror="alert(1)">`, excludes: []string{"onerror"}},
		{name: "javascript links dropped", in: "[x](javascript:alert(1))", excludes: []string{"javascript:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.HTML(tt.in)
			require.NoError(t, err)
			if tt.in == "" {
				assert.Empty(t, out)
			}
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}
