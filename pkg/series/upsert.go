package series

import "sort"

// Upsert appends newRows after existing, keeps only the last row for each
// key and sorts the result by date then slot. Neither input is modified.
func Upsert(existing, newRows []StatRow) []StatRow {
	all := make([]StatRow, 0, len(existing)+len(newRows))
	all = append(all, existing...)
	all = append(all, newRows...)

	last := make(map[Key]int, len(all))
	for i, r := range all {
		last[r.Key()] = i
	}

	out := make([]StatRow, 0, len(last))
	for i, r := range all {
		if last[r.Key()] == i {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].TimeSlot.Order() < out[j].TimeSlot.Order()
	})
	return out
}

// Items returns the distinct item names in order of first appearance.
func Items(rows []StatRow) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rows {
		if !seen[r.ItemName] {
			seen[r.ItemName] = true
			names = append(names, r.ItemName)
		}
	}
	return names
}

// ForItem returns the rows of a single item, keeping their order.
func ForItem(rows []StatRow, name string) []StatRow {
	var out []StatRow
	for _, r := range rows {
		if r.ItemName == name {
			out = append(out, r)
		}
	}
	return out
}
