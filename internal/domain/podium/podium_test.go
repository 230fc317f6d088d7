package podium_test

import (
	"errors"
	"testing"

	"github.com/okian/podium/internal/domain/assets"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/podium"
	"github.com/okian/podium/internal/domain/schema"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompute(t *testing.T) {
	Convey("Given a season sheet with English headers", t, func() {
		records := []model.RawRecord{
			{"Season": "2019/20", "Position": "1", "Coach": "Ana Gómez", "Team": "Lupi"},
			{"Season": "2021/22", "Position": "2", "Coach": "Bruno", "Team": "Orsi"},
			{"Season": "2020/21", "Position": "1", "Coach": "ana gomez", "Team": "Lupi"},
			{"Season": "2021/22", "Position": "4", "Coach": "Carla", "Team": "Volpi"},
			{"Season": "2021/22", "Position": "1", "Coach": "Bruno", "Team": "Orsi"},
		}
		src := assets.FromMap(map[string]any{"Ana Gómez": "http://x/img.png"})

		Convey("When computing both views", func() {
			res, err := podium.Compute(records, src, podium.Options{})

			Convey("Then the leaderboard is ranked with images joined", func() {
				So(err, ShouldBeNil)
				So(len(res.Leaderboard), ShouldEqual, 2)
				So(res.Leaderboard[0].DisplayName, ShouldEqual, "Ana Gómez")
				So(res.Leaderboard[0].Gold, ShouldEqual, 2)
				So(res.Leaderboard[0].ImageURL, ShouldEqual, "http://x/img.png")
				So(res.Leaderboard[1].DisplayName, ShouldEqual, "Bruno")
				So(res.Leaderboard[1].Rank, ShouldEqual, 2)
				So(res.ImagesAttached, ShouldEqual, 1)
			})

			Convey("And totals always match the medal counts", func() {
				for _, e := range res.Leaderboard {
					So(e.Total, ShouldEqual, e.Gold+e.Silver+e.Bronze)
				}
			})

			Convey("And the fourth place still shows in the history", func() {
				So(len(res.History), ShouldEqual, 5)
				So(res.History[0].Season.String(), ShouldEqual, "2021/22")
				So(res.History[0].Competitor.String(), ShouldEqual, "Bruno")
				So(res.History[2].Competitor.String(), ShouldEqual, "Carla")
				So(res.History[4].Season.String(), ShouldEqual, "2019/20")
				So(res.Seasons, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a batch with no position column", t, func() {
		records := []model.RawRecord{
			{"Season": "2020", "Coach": "Ana", "Team": "Lupi"},
			{"Season": "2021", "Position": "1", "Coach": "Ana", "Team": "Lupi"},
		}

		Convey("When computing", func() {
			res, err := podium.Compute(records, assets.Empty(), podium.Options{})

			Convey("Then the whole batch is rejected", func() {
				So(errors.Is(err, schema.ErrUnresolved), ShouldBeTrue)
				So(res.Leaderboard, ShouldBeEmpty)
				So(res.History, ShouldBeEmpty)
			})
		})

		Convey("And LoadLeaderboard reports the same", func() {
			entries, km, err := podium.LoadLeaderboard(records, assets.Empty(), podium.Options{})
			So(errors.Is(err, schema.ErrUnresolved), ShouldBeTrue)
			So(entries, ShouldBeEmpty)
			So(km, ShouldResemble, schema.FieldKeyMap{})
		})
	})

	Convey("Given an empty batch", t, func() {
		res, err := podium.Compute(nil, assets.Empty(), podium.Options{})

		Convey("Then both views are empty without error", func() {
			So(err, ShouldBeNil)
			So(res.Leaderboard, ShouldBeEmpty)
			So(res.History, ShouldBeEmpty)
		})
	})

	Convey("Given custom aliases", t, func() {
		aliases := schema.DefaultAliases().Merge(map[string][]string{"competitor": {"Player"}})
		records := []model.RawRecord{{"Year": 2020, "Rank": 3, "Player": "Dani", "Club": "Cervi"}}

		Convey("Then LoadLeaderboard and LoadHistory use them", func() {
			entries, km, err := podium.LoadLeaderboard(records, assets.Empty(), podium.Options{Aliases: aliases})
			So(err, ShouldBeNil)
			So(km.Competitor, ShouldEqual, "Player")
			So(entries[0].Bronze, ShouldEqual, 1)
			rows := podium.LoadHistory(records, km)
			So(rows[0].Medal, ShouldEqual, model.MedalBronze)
		})
	})
}
