package cartstore

import (
	"fooddelivery-cart/internal/domain"
	"fooddelivery-cart/internal/reconcile"
)

// patch is a local change together with the change that reverses it.
// apply runs before the network call, undo only if the call fails.
type patch struct {
	apply func([]domain.CartLine) []domain.CartLine
	undo  func([]domain.CartLine) []domain.CartLine
}

func indexOf(items []domain.CartLine, key string) int {
	for i, it := range items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}

// addPatch accumulates quantity onto an existing line or appends line.
func addPatch(line domain.CartLine) patch {
	key := line.Key()
	qty := line.Quantity
	return patch{
		apply: func(items []domain.CartLine) []domain.CartLine {
			if i := indexOf(items, key); i >= 0 {
				items[i].Quantity += qty
				return items
			}
			items = append(items, line)
			reconcile.SortByRestaurant(items)
			return items
		},
		undo: func(items []domain.CartLine) []domain.CartLine {
			i := indexOf(items, key)
			if i < 0 {
				return items
			}
			items[i].Quantity -= qty
			if items[i].Quantity <= 0 {
				return append(items[:i], items[i+1:]...)
			}
			return items
		},
	}
}

// quantityPatch sets the quantity of one line. previous is what undo restores.
func quantityPatch(key string, quantity, previous int) patch {
	set := func(q int) func([]domain.CartLine) []domain.CartLine {
		return func(items []domain.CartLine) []domain.CartLine {
			if i := indexOf(items, key); i >= 0 {
				items[i].Quantity = q
			}
			return items
		}
	}
	return patch{apply: set(quantity), undo: set(previous)}
}

// filterLines drops every line drop reports true for.
func filterLines(items []domain.CartLine, drop func(domain.CartLine) bool) []domain.CartLine {
	out := items[:0]
	for _, it := range items {
		if !drop(it) {
			out = append(out, it)
		}
	}
	return out
}
