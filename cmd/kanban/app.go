package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chepyr/go-kanban/internal/config"
	"github.com/chepyr/go-kanban/internal/rowstore"
	"github.com/chepyr/go-kanban/internal/snapshot"
	"github.com/chepyr/go-kanban/internal/state"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/chepyr/go-kanban/tasks-service/db"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// keyCurrentBoard is the storage key of the board chosen with "use".
const keyCurrentBoard = "currentBoard"

// shortIDLen is how much of an id the CLI prints.
const shortIDLen = 8

type exporter interface {
	Export(ctx context.Context, board *models.Board) (string, error)
}

// app wires the state containers for one CLI invocation. Database access is
// opened on first use so that auth commands work without it.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	out     io.Writer
	storage state.Storage
	auth    *state.AuthStore

	conn     *sql.DB
	repos    *repositories
	boards   *state.BoardsStore
	board    *state.BoardStore
	exporter exporter
	markdown *markdownRenderer
}

type repositories struct {
	boards *db.BoardRepository
	lists  *db.ListRepository
	cards  *db.CardRepository
}

func newApp(cfg *config.Config, log *zap.Logger, out io.Writer, identity state.IdentityProvider, storage state.Storage) *app {
	a := &app{
		cfg:     cfg,
		log:     log,
		out:     out,
		storage: storage,
		auth:    state.NewAuthStore(identity, storage),
	}
	a.auth.OnLogout(func() {
		if a.boards != nil {
			a.boards.Reset()
		}
		if a.board != nil {
			a.board.Reset()
		}
	})
	return a
}

func (a *app) useRepositories(store rowstore.Store) {
	a.repos = &repositories{
		boards: db.NewBoardRepository(store),
		lists:  db.NewListRepository(store),
		cards:  db.NewCardRepository(store),
	}
	a.boards = state.NewBoardsStore(a.repos.boards, a.auth)
	a.board = state.NewBoardStore(a.repos.boards, a.repos.lists, a.repos.cards, a.auth)
}

func (a *app) openDB() error {
	if a.repos != nil {
		return nil
	}
	driver := a.cfg.Database.Driver
	conn, err := rowstore.Connect(driver, a.cfg.Database.DataSource(), rowstore.ConnectionConfigFor(driver))
	if err != nil {
		return err
	}
	a.conn = conn
	a.useRepositories(rowstore.New(conn, driver))
	a.log.Debug("database opened", zap.String("driver", driver))
	return nil
}

func (a *app) close() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.log.Warn("close database", zap.Error(err))
		}
	}
}

func (a *app) requireLogin() error {
	if !a.auth.IsAuthenticated() {
		return errors.New("not logged in, run `kanban login` first")
	}
	return nil
}

func (a *app) boardsStore() (*state.BoardsStore, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	if err := a.openDB(); err != nil {
		return nil, err
	}
	return a.boards, nil
}

// boardStore loads the board named by flag, or the current board.
func (a *app) boardStore(ctx context.Context, flag string) (*state.BoardStore, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	if err := a.openDB(); err != nil {
		return nil, err
	}

	ref := flag
	if ref == "" {
		stored, ok, err := a.storage.Get(keyCurrentBoard)
		if err != nil {
			return nil, err
		}
		if !ok || stored == "" {
			return nil, errors.New("no board selected, run `kanban use <board>` or pass --board")
		}
		ref = stored
	}
	boardID, err := a.resolveBoard(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := a.board.Load(ctx, boardID); err != nil {
		return nil, err
	}
	return a.board, nil
}

// resolveBoard accepts a full id or a unique id prefix of one of the user's
// boards.
func (a *app) resolveBoard(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if err := a.boards.Fetch(ctx); err != nil {
		return uuid.Nil, err
	}
	var ids []uuid.UUID
	for _, b := range a.boards.Boards() {
		ids = append(ids, b.ID)
	}
	return matchPrefix("board", ref, ids)
}

func listIDs(store *state.BoardStore) []uuid.UUID {
	var ids []uuid.UUID
	for _, l := range store.Lists() {
		ids = append(ids, l.ID)
	}
	return ids
}

func cardIDs(store *state.BoardStore) []uuid.UUID {
	var ids []uuid.UUID
	for _, l := range store.Lists() {
		for _, c := range store.Cards(l.ID) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func resolveList(store *state.BoardStore, ref string) (uuid.UUID, error) {
	return matchPrefix("list", ref, listIDs(store))
}

func resolveCard(store *state.BoardStore, ref string) (uuid.UUID, error) {
	return matchPrefix("card", ref, cardIDs(store))
}

func matchPrefix(entity, ref string, ids []uuid.UUID) (uuid.UUID, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if len(ref) < 4 {
		return uuid.Nil, fmt.Errorf("%s id %q is too short", entity, ref)
	}
	var found []uuid.UUID
	for _, id := range ids {
		if strings.HasPrefix(id.String(), ref) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return uuid.Nil, &models.NotFoundError{Entity: entity, ID: ref}
	case 1:
		return found[0], nil
	}
	return uuid.Nil, fmt.Errorf("%s id %q is ambiguous", entity, ref)
}

func shortID(id uuid.UUID) string {
	return id.String()[:shortIDLen]
}

func (a *app) snapshotExporter(ctx context.Context) (exporter, error) {
	if a.exporter != nil {
		return a.exporter, nil
	}
	if a.cfg.S3.Endpoint == "" {
		return nil, errors.New("snapshot storage is not configured (set S3_ENDPOINT)")
	}
	client, err := snapshot.NewS3Client(ctx, a.cfg.S3)
	if err != nil {
		return nil, err
	}
	a.exporter = snapshot.NewExporter(client, a.cfg.S3.Bucket)
	return a.exporter, nil
}
