// Package schema resolves which physical column of a record batch carries each
// logical field.
package schema

import (
	"github.com/okian/podium/internal/domain/model"
)

// Field names a logical column.
type Field string

// Logical fields every batch must provide.
const (
	Season     Field = "season"
	Position   Field = "position"
	Competitor Field = "competitor"
	Team       Field = "team"
)

// Fields lists the required logical fields in resolution order.
var Fields = []Field{Season, Position, Competitor, Team}

// AliasTable maps each logical field to the accepted header spellings, most
// preferred first.
type AliasTable map[Field][]string

// DefaultAliases covers the Italian and English headers seen in the sheets.
func DefaultAliases() AliasTable {
	return AliasTable{
		Season:     {"Stagione", "Season", "Anno", "Year"},
		Position:   {"Posizione", "Placement", "Position", "Rank"},
		Competitor: {"Allenatore", "Allenatore 1", "Manager", "Coach"},
		Team:       {"Squadra", "Team", "Club"},
	}
}

// Merge returns a copy of t where fields present in override replace the
// defaults. Empty override lists are ignored.
func (t AliasTable) Merge(override map[string][]string) AliasTable {
	out := make(AliasTable, len(t))
	for f, aliases := range t {
		out[f] = append([]string(nil), aliases...)
	}
	for name, aliases := range override {
		if len(aliases) == 0 {
			continue
		}
		out[Field(name)] = append([]string(nil), aliases...)
	}
	return out
}

// FieldKeyMap holds the physical key resolved for every logical field.
type FieldKeyMap struct {
	Season     string `json:"season"`
	Position   string `json:"position"`
	Competitor string `json:"competitor"`
	Team       string `json:"team"`
}

// Key returns the physical key for f.
func (m FieldKeyMap) Key(f Field) string {
	switch f {
	case Season:
		return m.Season
	case Position:
		return m.Position
	case Competitor:
		return m.Competitor
	case Team:
		return m.Team
	default:
		return ""
	}
}

func (m *FieldKeyMap) set(f Field, key string) {
	switch f {
	case Season:
		m.Season = key
	case Position:
		m.Position = key
	case Competitor:
		m.Competitor = key
	case Team:
		m.Team = key
	}
}

// Resolve picks, for every logical field, the first alias that is a key of
// sample. The result applies to the whole batch sample was taken from; rows
// shaped differently are read with the same keys. A *UnresolvedError is
// returned when any field has no match.
func Resolve(sample model.RawRecord, aliases AliasTable) (FieldKeyMap, error) {
	var (
		km      FieldKeyMap
		missing []Field
	)
	for _, f := range Fields {
		key, ok := first(sample, aliases[f])
		if !ok {
			missing = append(missing, f)
			continue
		}
		km.set(f, key)
	}
	if len(missing) > 0 {
		return FieldKeyMap{}, &UnresolvedError{Missing: missing}
	}
	return km, nil
}

func first(rec model.RawRecord, candidates []string) (string, bool) {
	for _, c := range candidates {
		if _, ok := rec[c]; ok {
			return c, true
		}
	}
	return "", false
}
