// Package medals tallies top-three placements per competitor and orders the
// leaderboard and history views.
package medals

import (
	"unicode/utf8"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/normalize"
	"github.com/okian/podium/internal/domain/schema"
)

// SkipReason says why a record did not contribute a medal.
type SkipReason string

// Skip reasons.
const (
	SkipNoCompetitor SkipReason = "no_competitor"
	SkipNoPosition   SkipReason = "no_position"
	SkipBadPosition  SkipReason = "bad_position"
	SkipOffPodium    SkipReason = "off_podium"
)

// Tally is the unordered result of Aggregate. Entries keep first-seen order.
type Tally struct {
	order   []string
	byKey   map[string]*model.LeaderboardEntry
	Skipped map[SkipReason]int
}

func newTally() *Tally {
	return &Tally{
		byKey:   make(map[string]*model.LeaderboardEntry),
		Skipped: make(map[SkipReason]int),
	}
}

// Len returns the number of competitors with at least one medal.
func (t *Tally) Len() int { return len(t.order) }

// Get returns a copy of the entry for a folded key.
func (t *Tally) Get(key string) (model.LeaderboardEntry, bool) {
	e, ok := t.byKey[key]
	if !ok {
		return model.LeaderboardEntry{}, false
	}
	return *e, true
}

// Entries returns copies of all entries in first-seen order.
func (t *Tally) Entries() []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(t.order))
	for i, k := range t.order {
		out[i] = *t.byKey[k]
	}
	return out
}

// Aggregate folds records into per-competitor medal counts. Records without a
// competitor key, without a position, or placed outside 1..3 are skipped.
func Aggregate(records []model.RawRecord, km schema.FieldKeyMap) *Tally {
	t := newTally()
	for _, rec := range records {
		t.add(rec, km)
	}
	return t
}

func (t *Tally) add(rec model.RawRecord, km schema.FieldKeyMap) {
	competitor := normalize.Field(rec, km.Competitor)
	key := normalize.FoldName(competitor)
	if key == "" {
		t.Skipped[SkipNoCompetitor]++
		return
	}
	position := normalize.Field(rec, km.Position)
	if position.IsEmpty() {
		t.Skipped[SkipNoPosition]++
		return
	}
	pos, ok := normalize.Int(position)
	if !ok {
		t.Skipped[SkipBadPosition]++
		return
	}
	medal := model.MedalForPosition(pos)
	if medal == model.MedalNone {
		t.Skipped[SkipOffPodium]++
		return
	}

	name := competitor.String()
	e, seen := t.byKey[key]
	if !seen {
		e = &model.LeaderboardEntry{DisplayName: name, Key: key}
		t.byKey[key] = e
		t.order = append(t.order, key)
	}
	// Longer spellings usually carry nicknames or full names; equal lengths
	// keep the first one seen.
	if utf8.RuneCountInString(name) > utf8.RuneCountInString(e.DisplayName) {
		e.DisplayName = name
	}

	switch medal {
	case model.MedalGold:
		e.Gold++
	case model.MedalSilver:
		e.Silver++
	case model.MedalBronze:
		e.Bronze++
	}
	e.Total = e.Gold + e.Silver + e.Bronze
}
