package matches

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// Fingerprint derives the identity used to suppress duplicate imports:
// tournament|round|sortedPlayers, lower-cased, with whitespace removed from
// player names. Date, time, court and scores are deliberately not part of it.
//
// Two distinct matches between the same players in the same round of the
// same tournament collide; the later one is treated as a duplicate.
func Fingerprint(m models.Match) string {
	names := m.AllPlayerNames()
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, squash(n))
	}
	sort.Strings(keys)

	return strings.ToLower(m.TournamentName) + "|" + strings.ToLower(m.Round) + "|" + strings.Join(keys, "")
}

func squash(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// DedupIndex tracks fingerprints already present, either in the store or
// earlier in the same import batch.
type DedupIndex struct {
	seen map[string]struct{}
}

// NewDedupIndex seeds the index with existing matches.
func NewDedupIndex(existing []models.Match) *DedupIndex {
	d := &DedupIndex{seen: make(map[string]struct{}, len(existing))}
	for _, m := range existing {
		d.seen[Fingerprint(m)] = struct{}{}
	}
	return d
}

// Contains reports whether a match with the same fingerprint was seen.
func (d *DedupIndex) Contains(m models.Match) bool {
	_, ok := d.seen[Fingerprint(m)]
	return ok
}

// Add records the match and reports whether it was new. A false return means
// the match is a duplicate and must be dropped.
func (d *DedupIndex) Add(m models.Match) bool {
	fp := Fingerprint(m)
	if _, ok := d.seen[fp]; ok {
		return false
	}
	d.seen[fp] = struct{}{}
	return true
}
