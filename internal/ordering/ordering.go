// Package ordering computes position values for lists and cards.
//
// Positions are integer sort keys scoped to a parent container. They are
// not required to be contiguous; readers always sort ascending by position
// and break ties by id.
package ordering

import (
	"cmp"
	"errors"
	"slices"

	"github.com/chepyr/go-kanban/shared/models"
	"github.com/google/uuid"
)

var ErrUnknownItem = errors.New("item is not in the container")

// Item is the part of a list or card the ordering rules look at.
type Item struct {
	ID       uuid.UUID
	Position int
}

// Plan describes where a moved item lands. Renumbered holds the siblings
// whose position has to change to make room, and is empty when a gap was
// available.
type Plan struct {
	Position   int
	Renumbered []models.PositionUpdate
}

// Updates returns the full set of position writes for the plan, the moved
// item first.
func (p Plan) Updates(id uuid.UUID) []models.PositionUpdate {
	out := make([]models.PositionUpdate, 0, len(p.Renumbered)+1)
	out = append(out, models.PositionUpdate{ID: id, Position: p.Position})
	return append(out, p.Renumbered...)
}

// NextPosition is the append position: one past the current max, or 0.
func NextPosition(positions []int) int {
	if len(positions) == 0 {
		return 0
	}
	return slices.Max(positions) + 1
}

func Compare(a, b Item) int {
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

func Sort(items []Item) {
	slices.SortStableFunc(items, Compare)
}

func SortLists(lists []*models.List) {
	slices.SortStableFunc(lists, func(a, b *models.List) int {
		return Compare(Item{a.ID, a.Position}, Item{b.ID, b.Position})
	})
}

func SortCards(cards []*models.Card) {
	slices.SortStableFunc(cards, func(a, b *models.Card) int {
		return Compare(Item{a.ID, a.Position}, Item{b.ID, b.Position})
	})
}

func ListItems(lists []*models.List) []Item {
	items := make([]Item, len(lists))
	for i, l := range lists {
		items[i] = Item{ID: l.ID, Position: l.Position}
	}
	return items
}

func CardItems(cards []*models.Card) []Item {
	items := make([]Item, len(cards))
	for i, c := range cards {
		items[i] = Item{ID: c.ID, Position: c.Position}
	}
	return items
}

// Reorder moves id to index toIndex among its own siblings. siblings must
// contain id.
func Reorder(siblings []Item, id uuid.UUID, toIndex int) (Plan, error) {
	others := make([]Item, 0, len(siblings))
	found := false
	for _, it := range siblings {
		if it.ID == id {
			found = true
			continue
		}
		others = append(others, it)
	}
	if !found {
		return Plan{}, ErrUnknownItem
	}
	return place(others, id, toIndex), nil
}

// MoveAcross places id at index toIndex of another container. The source
// container is left as is, so its remaining items keep their positions.
func MoveAcross(destination []Item, id uuid.UUID, toIndex int) Plan {
	others := make([]Item, 0, len(destination))
	for _, it := range destination {
		if it.ID != id {
			others = append(others, it)
		}
	}
	return place(others, id, toIndex)
}

// place puts id between others[toIndex-1] and others[toIndex]. It takes the
// midpoint when the neighbours leave a gap, and otherwise renumbers the
// whole container 0..n.
func place(others []Item, id uuid.UUID, toIndex int) Plan {
	sorted := slices.Clone(others)
	Sort(sorted)
	toIndex = max(0, min(toIndex, len(sorted)))

	switch {
	case len(sorted) == 0:
		return Plan{Position: 0}
	case toIndex == len(sorted):
		return Plan{Position: sorted[len(sorted)-1].Position + 1}
	}

	lo := -1
	if toIndex > 0 {
		lo = sorted[toIndex-1].Position
	}
	hi := sorted[toIndex].Position
	if hi-lo >= 2 {
		return Plan{Position: lo + (hi-lo)/2}
	}

	plan := Plan{Position: toIndex}
	for i, it := range sorted {
		want := i
		if i >= toIndex {
			want = i + 1
		}
		if it.Position != want {
			plan.Renumbered = append(plan.Renumbered, models.PositionUpdate{ID: it.ID, Position: want})
		}
	}
	return plan
}
