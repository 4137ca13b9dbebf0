package catalog

import (
	"slices"
	"sort"
)

// MaxKeyCrew caps the crew shown next to a movie.
const MaxKeyCrew = 8

var keyJobs = []string{"Director", "Producer", "Executive Producer", "Screenplay", "Writer", "Music"}

// KeyCrew keeps crew members whose job is on the key-job list, in source
// order, up to MaxKeyCrew entries.
func KeyCrew(crew []CrewMember) []CrewMember {
	var out []CrewMember
	for _, member := range crew {
		if !slices.Contains(keyJobs, member.Job) {
			continue
		}
		out = append(out, member)
		if len(out) == MaxKeyCrew {
			break
		}
	}
	return out
}

// TopCast returns the first n cast members in billing order.
func TopCast(cast []CastMember, n int) []CastMember {
	sorted := slices.Clone(cast)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
