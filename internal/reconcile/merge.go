// Package reconcile merges authoritative backend cart snapshots with local
// lines that were applied optimistically and may not be visible server-side yet.
package reconcile

import (
	"sort"
	"time"

	"fooddelivery-cart/internal/domain"
)

// Merge combines backend lines with still-trusted local lines.
//
// Backend lines are copied verbatim. A local line survives only while its key
// is pending inside the trust window and the backend does not cover it yet.
// Expired keys are pruned and keys the backend now covers are confirmed
// (removed from pending). The result is stably sorted by restaurant name.
func Merge(backend, local []domain.CartLine, pending *PendingSet, now time.Time) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(backend))
	covered := make(map[string]struct{}, len(backend))
	for _, line := range backend {
		out = append(out, line)
		covered[line.Key()] = struct{}{}
	}

	if pending != nil {
		pending.Prune(now)
		for key := range covered {
			pending.Delete(key)
		}
		kept := make(map[string]struct{})
		for _, line := range local {
			key := line.Key()
			if _, ok := covered[key]; ok {
				continue
			}
			if _, ok := kept[key]; ok {
				continue
			}
			if !pending.Active(key, now) {
				continue
			}
			kept[key] = struct{}{}
			out = append(out, line)
		}
	}

	SortByRestaurant(out)
	return out
}

// SortByRestaurant stable-sorts lines by restaurant name, ascending.
func SortByRestaurant(lines []domain.CartLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].RestaurantName < lines[j].RestaurantName
	})
}
