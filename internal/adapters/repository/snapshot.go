package repository

import (
	"time"

	"github.com/okian/podium/internal/domain/medals"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/podium"
	"github.com/okian/podium/internal/domain/schema"
)

// Snapshot is an immutable view of one computed batch. Readers never see a
// partially built snapshot.
type Snapshot struct {
	ID          string
	PublishedAt time.Time

	KeyMap         schema.FieldKeyMap
	Leaderboard    []model.LeaderboardEntry
	History        []model.Placement
	Seasons        int
	Records        int
	Skipped        map[medals.SkipReason]int
	AssetsIndexed  int
	ImagesAttached int

	// Err is set on a snapshot published for a batch that could not be
	// computed; reads return it instead of data.
	Err error

	// folded competitor key → index in Leaderboard
	byKey map[string]int
}

// NewSnapshot wraps a computed result. ID and PublishedAt are stamped by
// the store on Publish when left empty.
func NewSnapshot(res podium.Result) *Snapshot {
	s := &Snapshot{
		KeyMap:         res.KeyMap,
		Leaderboard:    res.Leaderboard,
		History:        res.History,
		Seasons:        res.Seasons,
		Records:        res.Records,
		Skipped:        res.Skipped,
		AssetsIndexed:  res.AssetsIndexed,
		ImagesAttached: res.ImagesAttached,
	}
	s.index()
	return s
}

// NewFailedSnapshot returns an empty snapshot that answers every read with
// err until a good batch replaces it.
func NewFailedSnapshot(err error) *Snapshot {
	s := &Snapshot{
		Leaderboard: []model.LeaderboardEntry{},
		History:     []model.Placement{},
		Skipped:     map[medals.SkipReason]int{},
		Err:         err,
	}
	s.index()
	return s
}

func (s *Snapshot) index() {
	s.byKey = make(map[string]int, len(s.Leaderboard))
	for i, e := range s.Leaderboard {
		if _, dup := s.byKey[e.Key]; !dup {
			s.byKey[e.Key] = i
		}
	}
}

// Lookup returns the entry whose folded key equals key.
func (s *Snapshot) Lookup(key string) (model.LeaderboardEntry, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return model.LeaderboardEntry{}, false
	}
	return s.Leaderboard[i], true
}
