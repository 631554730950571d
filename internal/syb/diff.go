package syb

import "sort"

// Diff computes the pure set difference between two zone snapshots:
// added = current - previous, removed = previous - current. The two result
// sets are disjoint by construction and sorted for stable logs. Equal inputs
// yield two empty slices.
func Diff(previous, current map[string]ZoneSnapshot) (added, removed []string) {
	for id := range current {
		if _, ok := previous[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range previous {
		if _, ok := current[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
