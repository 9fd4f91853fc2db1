package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chepyr/go-kanban/internal/state"
	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newCardCmd(e *env) *cobra.Command {
	var boardRef string

	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage the cards of the current board",
	}
	cmd.PersistentFlags().StringVarP(&boardRef, "board", "b", "", "board id or id prefix (defaults to the current board)")

	cmd.AddCommand(
		newCardAddCmd(e, &boardRef),
		newCardEditCmd(e, &boardRef),
		newCardMoveCmd(e, &boardRef),
		newCardDeleteCmd(e, &boardRef),
		newCardShowCmd(e, &boardRef),
	)
	return cmd
}

func parsePriority(v string) (models.Priority, error) {
	p := models.Priority(strings.ToLower(strings.TrimSpace(v)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q, use low, medium or high", v)
	}
	return p, nil
}

func findList(store *state.BoardStore, id uuid.UUID) (models.List, bool) {
	for _, l := range store.Lists() {
		if l.ID == id {
			return l, true
		}
	}
	return models.List{}, false
}

func newCardAddCmd(e *env, boardRef *string) *cobra.Command {
	var (
		description string
		priority    string
	)

	cmd := &cobra.Command{
		Use:   "add <list> <title>",
		Short: "Add a card to the end of a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), *boardRef)
			if err != nil {
				return err
			}
			listID, err := resolveList(store, args[0])
			if err != nil {
				return err
			}
			input := models.CreateCardInput{Title: args[1], ListID: listID}
			if cmd.Flags().Changed("description") {
				input.Description = &description
			}
			if priority != "" {
				if input.Priority, err = parsePriority(priority); err != nil {
					return err
				}
			}
			card, err := store.CreateCard(cmd.Context(), input)
			if err != nil {
				return err
			}
			success(a.out, "Added card %s (%s) %s", card.Title, shortID(card.ID), priorityBadge(card.Priority))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "card description (markdown)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high (default medium)")
	return cmd
}

func newCardEditCmd(e *env, boardRef *string) *cobra.Command {
	var (
		title       string
		description string
		priority    string
	)

	cmd := &cobra.Command{
		Use:   "edit <card>",
		Short: "Change a card's title, description or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			var input models.UpdateCardInput
			flags := cmd.Flags()
			if flags.Changed("title") {
				input.Title = &title
			}
			if flags.Changed("description") {
				input.Description = &description
			}
			if flags.Changed("priority") {
				p, err := parsePriority(priority)
				if err != nil {
					return err
				}
				input.Priority = &p
			}
			if input.Title == nil && input.Description == nil && input.Priority == nil {
				return errors.New("nothing to change, pass --title, --description or --priority")
			}

			store, err := a.boardStore(cmd.Context(), *boardRef)
			if err != nil {
				return err
			}
			id, err := resolveCard(store, args[0])
			if err != nil {
				return err
			}
			card, err := store.UpdateCard(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			success(a.out, "Updated card %s %s", card.Title, priorityBadge(card.Priority))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description, empty to clear it")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	return cmd
}

func newCardMoveCmd(e *env, boardRef *string) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "move <card> <list>",
		Short: "Move a card to another list or position",
		Long: "Move a card into a list at a zero-based index. Without --index the " +
			"card goes to the end of the target list.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), *boardRef)
			if err != nil {
				return err
			}
			cardID, err := resolveCard(store, args[0])
			if err != nil {
				return err
			}
			listID, err := resolveList(store, args[1])
			if err != nil {
				return err
			}
			to := index
			if !cmd.Flags().Changed("index") {
				to = len(store.Cards(listID))
			}
			card, err := store.MoveCard(cmd.Context(), cardID, listID, to)
			if err != nil {
				return err
			}
			list, _ := findList(store, listID)
			success(a.out, "Moved %s to %s", card.Title, list.Title)
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "zero-based position in the target list")
	return cmd
}

func newCardDeleteCmd(e *env, boardRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <card>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), *boardRef)
			if err != nil {
				return err
			}
			id, err := resolveCard(store, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteCard(cmd.Context(), id); err != nil {
				return err
			}
			success(a.out, "Deleted card %s", shortID(id))
			return nil
		},
	}
}

func newCardShowCmd(e *env, boardRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <card>",
		Short: "Show a card with its rendered description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			store, err := a.boardStore(cmd.Context(), *boardRef)
			if err != nil {
				return err
			}
			id, err := resolveCard(store, args[0])
			if err != nil {
				return err
			}
			card, ok := store.Card(id)
			if !ok {
				return &models.NotFoundError{Entity: "card", ID: id.String()}
			}
			list, _ := findList(store, card.ListID)
			renderCard(a.out, a.markdown, list, card)
			return nil
		},
	}
}
