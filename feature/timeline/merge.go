package timeline

import "feedsync/feature/remote"

// MergeByTime merges projections that are each ordered newest first into one
// newest-first list. Equal times fall back to identifier order. An id present
// in several inputs is kept once, at its first position.
func MergeByTime(inputs ...[]Ref) []Ref {
	total := 0
	for _, in := range inputs {
		total += len(in)
	}
	out := make([]Ref, 0, total)
	seen := make(map[string]struct{}, total)
	pos := make([]int, len(inputs))

	for {
		best := -1
		for i, in := range inputs {
			if pos[i] >= len(in) {
				continue
			}
			if best < 0 || newer(in[pos[i]], inputs[best][pos[best]]) {
				best = i
			}
		}
		if best < 0 {
			return out
		}
		r := inputs[best][pos[best]]
		pos[best]++
		key := string(r.Kind) + ":" + r.ID
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
}

func newer(a, b Ref) bool {
	if a.PostedAt != b.PostedAt {
		return a.PostedAt > b.PostedAt
	}
	return remote.CompareIDs(a.ID, b.ID) > 0
}
