package main

import (
	"fmt"
	"strings"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBoardsCmd(e *env) *cobra.Command {
	var (
		search string
		sortBy string
		order  string
	)

	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List your boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardsStore()
			if err != nil {
				return err
			}
			filter := models.BoardFilter{
				SearchQuery: search,
				SortBy:      models.BoardSortField(strings.ReplaceAll(sortBy, "-", "_")),
				SortOrder:   models.SortOrder(order),
			}
			if err := store.SetFilter(cmd.Context(), filter); err != nil {
				return err
			}
			renderBoards(a.out, store.Boards())
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only boards whose name contains this text")
	cmd.Flags().StringVar(&sortBy, "sort", string(models.SortByUpdatedAt), "sort by name, created_at or updated_at")
	cmd.Flags().StringVar(&order, "order", string(models.SortDesc), "asc or desc")

	cmd.AddCommand(
		newBoardsCreateCmd(e),
		newBoardsRenameCmd(e),
		newBoardsDeleteCmd(e),
	)
	return cmd
}

func newBoardsCreateCmd(e *env) *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardsStore()
			if err != nil {
				return err
			}
			board, err := store.Create(cmd.Context(), models.CreateBoardInput{Name: args[0]})
			if err != nil {
				return err
			}
			success(a.out, "Created board %s (%s)", board.Name, shortID(board.ID))
			if use {
				return a.storage.Set(keyCurrentBoard, board.ID.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "make the new board the current one")
	return cmd
}

func newBoardsRenameCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <board> <name>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardsStore()
			if err != nil {
				return err
			}
			id, err := a.resolveBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			name := args[1]
			board, err := store.Update(cmd.Context(), id, models.UpdateBoardInput{Name: &name})
			if err != nil {
				return err
			}
			success(a.out, "Renamed board to %s", board.Name)
			return nil
		},
	}
}

func newBoardsDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board>",
		Short: "Delete a board with all of its lists and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardsStore()
			if err != nil {
				return err
			}
			id, err := a.resolveBoard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if current, ok, _ := a.storage.Get(keyCurrentBoard); ok && current == id.String() {
				if err := a.storage.Delete(keyCurrentBoard); err != nil {
					a.log.Warn("forget current board", zap.Error(err))
				}
			}
			success(a.out, "Deleted board %s", shortID(id))
			return nil
		},
	}
}

func newUseCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "use <board>",
		Short: "Select the board that list and card commands work on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			board := store.Board()
			if err := a.storage.Set(keyCurrentBoard, board.ID.String()); err != nil {
				return err
			}
			success(a.out, "Now using board %s", board.Name)
			return nil
		},
	}
}

func newBoardCmd(e *env) *cobra.Command {
	var boardRef string

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show or export the current board",
	}
	cmd.PersistentFlags().StringVarP(&boardRef, "board", "b", "", "board id or id prefix (defaults to the current board)")

	var (
		priority string
		search   string
	)
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the board's lists and cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			p := models.Priority(strings.ToLower(priority))
			if p != "" && !p.Valid() {
				return fmt.Errorf("unknown priority %q, use low, medium or high", priority)
			}
			store, err := a.boardStore(cmd.Context(), boardRef)
			if err != nil {
				return err
			}
			store.SetFilters(models.CardFilters{Priority: p, SearchQuery: search})
			renderBoard(a.out, store)
			return nil
		},
	}
	show.Flags().StringVar(&priority, "priority", "", "only cards with this priority")
	show.Flags().StringVarP(&search, "search", "s", "", "only cards whose title or description contains this text")

	export := &cobra.Command{
		Use:   "export",
		Short: "Upload a JSON snapshot of the board to object storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), boardRef)
			if err != nil {
				return err
			}
			exp, err := a.snapshotExporter(cmd.Context())
			if err != nil {
				return err
			}
			board, err := a.repos.boards.GetByIDWithData(cmd.Context(), store.Board().ID)
			if err != nil {
				return err
			}
			key, err := exp.Export(cmd.Context(), board)
			if err != nil {
				return err
			}
			a.log.Debug("board exported", zap.String("key", key))
			success(a.out, "Exported %s to %s", board.Name, key)
			return nil
		},
	}

	cmd.AddCommand(show, export)
	return cmd
}
