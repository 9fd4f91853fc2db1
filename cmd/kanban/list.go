package main

import (
	"strconv"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/spf13/cobra"
)

func newListCmd(e *env) *cobra.Command {
	var boardRef string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage the lists of the current board",
	}
	cmd.PersistentFlags().StringVarP(&boardRef, "board", "b", "", "board id or id prefix (defaults to the current board)")

	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Append a list to the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), boardRef)
			if err != nil {
				return err
			}
			list, err := store.CreateList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			success(a.out, "Added list %s (%s)", list.Title, shortID(list.ID))
			return nil
		},
	}

	rename := &cobra.Command{
		Use:   "rename <list> <title>",
		Short: "Rename a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), boardRef)
			if err != nil {
				return err
			}
			id, err := resolveList(store, args[0])
			if err != nil {
				return err
			}
			title := args[1]
			list, err := store.UpdateList(cmd.Context(), id, models.UpdateListInput{Title: &title})
			if err != nil {
				return err
			}
			success(a.out, "Renamed list to %s", list.Title)
			return nil
		},
	}

	move := &cobra.Command{
		Use:   "move <list> <index>",
		Short: "Move a list to a zero-based position on the board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			store, err := a.boardStore(cmd.Context(), boardRef)
			if err != nil {
				return err
			}
			id, err := resolveList(store, args[0])
			if err != nil {
				return err
			}
			if err := store.ReorderList(cmd.Context(), id, index); err != nil {
				return err
			}
			renderBoard(a.out, store)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <list>",
		Short: "Delete a list and its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), boardRef)
			if err != nil {
				return err
			}
			id, err := resolveList(store, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteList(cmd.Context(), id); err != nil {
				return err
			}
			success(a.out, "Deleted list %s", shortID(id))
			return nil
		},
	}

	cmd.AddCommand(add, rename, move, del)
	return cmd
}
