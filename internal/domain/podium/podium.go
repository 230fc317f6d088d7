// Package podium runs the full ranking pipeline over one batch of records:
// schema resolution, medal aggregation, ranking, image join and the
// chronological history view. All functions are pure.
package podium

import (
	"github.com/okian/podium/internal/domain/assets"
	"github.com/okian/podium/internal/domain/medals"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/schema"
)

// Options configures header and asset key resolution.
type Options struct {
	Aliases   schema.AliasTable
	AssetKeys assets.Keys
}

func (o Options) aliases() schema.AliasTable {
	if len(o.Aliases) == 0 {
		return schema.DefaultAliases()
	}
	return o.Aliases
}

// Result bundles both views computed from one batch.
type Result struct {
	KeyMap         schema.FieldKeyMap
	Leaderboard    []model.LeaderboardEntry
	History        []model.Placement
	Seasons        int
	Records        int
	Skipped        map[medals.SkipReason]int
	AssetsIndexed  int
	ImagesAttached int
}

// LoadLeaderboard resolves the batch schema from its first record and returns
// the ranked leaderboard with images attached. An empty batch yields an empty
// leaderboard and no error.
func LoadLeaderboard(records []model.RawRecord, src assets.Source, opts Options) ([]model.LeaderboardEntry, schema.FieldKeyMap, error) {
	res, err := Compute(records, src, opts)
	if err != nil {
		return nil, schema.FieldKeyMap{}, err
	}
	return res.Leaderboard, res.KeyMap, nil
}

// LoadHistory returns every record in chronological order using a key map
// previously resolved for the same batch.
func LoadHistory(records []model.RawRecord, km schema.FieldKeyMap) []model.Placement {
	return medals.Chronological(records, km)
}

// Compute produces both views. The only error is a schema that does not
// resolve, in which case the result is empty.
func Compute(records []model.RawRecord, src assets.Source, opts Options) (Result, error) {
	res := Result{
		Leaderboard: []model.LeaderboardEntry{},
		History:     []model.Placement{},
		Skipped:     map[medals.SkipReason]int{},
	}
	if len(records) == 0 {
		return res, nil
	}

	km, err := schema.Resolve(records[0], opts.aliases())
	if err != nil {
		return res, err
	}
	res.KeyMap = km
	res.Records = len(records)

	tally := medals.Aggregate(records, km)
	res.Skipped = tally.Skipped

	ranked := tally.Entries()
	medals.Rank(ranked)

	ix := assets.BuildIndex(src, opts.AssetKeys)
	res.AssetsIndexed = len(ix)
	res.Leaderboard = assets.Attach(ranked, ix)
	for _, e := range res.Leaderboard {
		if e.HasImage() {
			res.ImagesAttached++
		}
	}

	res.History = LoadHistory(records, km)
	res.Seasons = medals.DistinctSeasons(res.History)
	return res, nil
}
