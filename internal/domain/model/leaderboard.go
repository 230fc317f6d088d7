package model

// Medal classifies a top-three placement.
type Medal uint8

// Medal values. MedalNone covers 4th place and anything unparseable.
const (
	MedalNone Medal = iota
	MedalGold
	MedalSilver
	MedalBronze
)

// MedalForPosition maps a parsed 1-based position to its medal.
func MedalForPosition(pos int) Medal {
	switch pos {
	case 1:
		return MedalGold
	case 2:
		return MedalSilver
	case 3:
		return MedalBronze
	default:
		return MedalNone
	}
}

func (m Medal) String() string {
	switch m {
	case MedalGold:
		return "gold"
	case MedalSilver:
		return "silver"
	case MedalBronze:
		return "bronze"
	default:
		return "none"
	}
}

// MarshalText encodes the medal by name.
func (m Medal) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// LeaderboardEntry holds the medal tally of one competitor.
// Total always equals Gold + Silver + Bronze.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	DisplayName string `json:"name"`
	Key         string `json:"key"`
	Gold        int    `json:"gold"`
	Silver      int    `json:"silver"`
	Bronze      int    `json:"bronze"`
	Total       int    `json:"total"`
	ImageURL    string `json:"image_url,omitempty"`
}

// HasImage reports whether an asset was joined onto the entry.
func (e LeaderboardEntry) HasImage() bool { return e.ImageURL != "" }

// Placement is one row of the chronological history view.
type Placement struct {
	Season     Cell      `json:"season"`
	Position   Cell      `json:"position"`
	Competitor Cell      `json:"competitor"`
	Team       Cell      `json:"team"`
	Year       float64   `json:"-"`
	Medal      Medal     `json:"medal"`
	Record     RawRecord `json:"-"`
}
