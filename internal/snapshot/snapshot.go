// Package snapshot exports boards as JSON documents to S3-compatible
// storage and reads them back.
//
// Every export writes two objects: boards/<id>/latest.json, which is
// overwritten each time, and boards/<id>/<timestamp>.json, which is kept.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/chepyr/go-kanban/internal/ordering"
	"github.com/chepyr/go-kanban/shared/models"
)

const timestampLayout = "20060102T150405.000000000Z"

// ObjectStore is the part of *s3.Client the exporter needs.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Snapshot struct {
	ExportedAt time.Time `json:"exportedAt"`
	Board      Board     `json:"board"`
}

type Board struct {
	models.Board
	Lists []List `json:"lists"`
}

type List struct {
	models.List
	Cards []Card `json:"cards"`
}

type Card struct {
	models.Card
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
}

type Exporter struct {
	store    ObjectStore
	bucket   string
	renderer *Renderer
	now      func() time.Time
}

func NewExporter(store ObjectStore, bucket string) *Exporter {
	return &Exporter{
		store:    store,
		bucket:   bucket,
		renderer: NewRenderer(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func LatestKey(boardID uuid.UUID) string {
	return fmt.Sprintf("boards/%s/latest.json", boardID)
}

// Export writes board, which should carry its lists and cards, and returns
// the key of the timestamped copy.
func (e *Exporter) Export(ctx context.Context, board *models.Board) (string, error) {
	snap, err := e.build(board)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := fmt.Sprintf("boards/%s/%s.json", board.ID, snap.ExportedAt.Format(timestampLayout))
	for _, k := range []string{key, LatestKey(board.ID)} {
		if err := e.put(ctx, k, data); err != nil {
			return "", err
		}
	}
	return key, nil
}

// Load reads the latest snapshot of a board. A missing object is
// models.ErrNotFound.
func (e *Exporter) Load(ctx context.Context, boardID uuid.UUID) (*Snapshot, error) {
	out, err := e.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(LatestKey(boardID)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &models.NotFoundError{Entity: "snapshot", ID: boardID.String()}
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (e *Exporter) put(ctx context.Context, key string, data []byte) error {
	_, err := e.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

func (e *Exporter) build(board *models.Board) (*Snapshot, error) {
	out := &Snapshot{ExportedAt: e.now()}
	out.Board.Board = *board
	out.Board.Board.Lists = nil

	lists := append([]*models.List(nil), board.Lists...)
	ordering.SortLists(lists)
	out.Board.Lists = make([]List, 0, len(lists))
	for _, l := range lists {
		sl := List{List: *l, Cards: make([]Card, 0, len(l.Cards))}
		sl.List.Cards = nil

		cards := append([]*models.Card(nil), l.Cards...)
		ordering.SortCards(cards)
		for _, c := range cards {
			html, err := e.renderer.HTML(c.Description)
			if err != nil {
				return nil, fmt.Errorf("render card %s: %w", c.ID, err)
			}
			sl.Cards = append(sl.Cards, Card{Card: *c, DescriptionHTML: html})
		}
		out.Board.Lists = append(out.Board.Lists, sl)
	}
	return out, nil
}
