package medals

import (
	"sort"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/normalize"
	"github.com/okian/podium/internal/domain/schema"
)

// Rank sorts entries in place by gold, silver, bronze and total, all
// descending, then assigns rank numbers. The sort is stable: entries equal on
// all four counts keep their input order and share a rank.
func Rank(entries []model.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return ahead(entries[i], entries[j])
	})
	assignRanksWithTies(entries)
}

// ahead reports whether a ranks strictly before b.
func ahead(a, b model.LeaderboardEntry) bool {
	if a.Gold != b.Gold {
		return a.Gold > b.Gold
	}
	if a.Silver != b.Silver {
		return a.Silver > b.Silver
	}
	if a.Bronze != b.Bronze {
		return a.Bronze > b.Bronze
	}
	return a.Total > b.Total
}

// assignRanksWithTies gives tied neighbours the same rank; the next distinct
// entry gets the next consecutive rank.
func assignRanksWithTies(entries []model.LeaderboardEntry) {
	rank := 0
	for i := range entries {
		if i == 0 || ahead(entries[i-1], entries[i]) {
			rank++
		}
		entries[i].Rank = rank
	}
}

// Podium returns up to the first three ranked entries.
func Podium(ranked []model.LeaderboardEntry) []model.LeaderboardEntry {
	n := min(3, len(ranked))
	out := make([]model.LeaderboardEntry, n)
	copy(out, ranked[:n])
	return out
}

// Chronological builds the history view: every record, newest season first,
// then by position ascending. Records with unparseable seasons sort last;
// unparseable positions compare equal to anything within their season.
func Chronological(records []model.RawRecord, km schema.FieldKeyMap) []model.Placement {
	rows := make([]model.Placement, len(records))
	pos := make([]int, len(records))
	posOK := make([]bool, len(records))
	for i, rec := range records {
		rows[i] = placement(rec, km)
		pos[i], posOK[i] = normalize.Int(rows[i].Position)
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := rows[idx[a]], rows[idx[b]]
		if ra.Year != rb.Year {
			return ra.Year > rb.Year
		}
		if !posOK[idx[a]] || !posOK[idx[b]] {
			return false
		}
		return pos[idx[a]] < pos[idx[b]]
	})

	out := make([]model.Placement, len(rows))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func placement(rec model.RawRecord, km schema.FieldKeyMap) model.Placement {
	p := model.Placement{
		Season:     normalize.Field(rec, km.Season),
		Position:   normalize.Field(rec, km.Position),
		Competitor: normalize.Field(rec, km.Competitor),
		Team:       normalize.Field(rec, km.Team),
		Record:     rec,
	}
	p.Year = normalize.Year(p.Season)
	if n, ok := normalize.Int(p.Position); ok {
		p.Medal = model.MedalForPosition(n)
	}
	return p
}

type seasonKey struct {
	kind model.CellKind
	text string
}

// DistinctSeasons counts the different normalized season values in rows. The
// number 2020 and the text "2020" are different seasons.
func DistinctSeasons(rows []model.Placement) int {
	seen := make(map[seasonKey]struct{}, len(rows))
	for _, r := range rows {
		seen[seasonKey{kind: r.Season.Kind, text: r.Season.String()}] = struct{}{}
	}
	return len(seen)
}
