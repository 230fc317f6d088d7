package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/assets"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/schema"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// fakeLoader serves canned datasets and counts calls.
type fakeLoader struct {
	mu        sync.Mutex
	records   []model.RawRecord
	recErr    error
	src       assets.Source
	assetsErr error
	calls     int
}

func (f *fakeLoader) Records(_ context.Context, _ string) ([]model.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.records, f.recErr
}

func (f *fakeLoader) Assets(_ context.Context, _ string) (assets.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.src, f.assetsErr
}

func (f *fakeLoader) set(records []model.RawRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records, f.recErr = records, err
}

func (f *fakeLoader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// skippedGauge reads the skipped-records gauge for one reason from the
// service registry.
func skippedGauge(reason string) (float64, bool) {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return 0, false
	}
	for _, f := range families {
		if f.GetName() != "podium_leaderboard_records_skipped" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "reason" && l.GetValue() == reason {
					return m.GetGauge().GetValue(), true
				}
			}
		}
	}
	return 0, false
}

func placements() []model.RawRecord {
	return []model.RawRecord{
		{"Stagione": "2023/24", "Posizione": "1°", "Allenatore": "Zoë Bianchi", "Squadra": "Lupi"},
		{"Stagione": "2023/24", "Posizione": 2, "Allenatore": "Mario Rossi", "Squadra": "Orsi"},
		{"Stagione": "2022/23", "Posizione": 1, "Allenatore": "mario  rossi", "Squadra": "Orsi"},
		{"Stagione": "2022/23", "Posizione": 3, "Allenatore": "Luca Verdi", "Squadra": "Falchi"},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service without a records location", t, func() {
		svc := service.New()

		Convey("Then Start refuses to run", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrNoRecordsLocation), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Then reads report that nothing is published", func() {
			_, err := svc.Leaderboard(context.Background(), 10)
			So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given a service with a fake loader", t, func() {
		ctx := context.Background()
		loader := &fakeLoader{
			records: placements(),
			src: assets.Map([]assets.Pair{
				{Name: "Zoe Bianchi", Value: "https://img/zoe.png"},
			}),
		}
		svc := service.New(
			service.WithLoader(loader),
			service.WithRecordsURL("records.json"),
			service.WithAssetsURL("images.json"),
		)

		Convey("When the refresh succeeds", func() {
			err := svc.Refresh(ctx)
			So(err, ShouldBeNil)

			Convey("Then the leaderboard is ranked with images attached", func() {
				entries, err := svc.Leaderboard(ctx, 0)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].DisplayName, ShouldEqual, "mario  rossi")
				So(entries[0].Gold, ShouldEqual, 1)
				So(entries[0].Silver, ShouldEqual, 1)
				So(entries[1].DisplayName, ShouldEqual, "Zoë Bianchi")
				So(entries[1].ImageURL, ShouldEqual, "https://img/zoe.png")
				So(entries[2].HasImage(), ShouldBeFalse)
			})

			Convey("Then limits are honoured", func() {
				entries, err := svc.Leaderboard(ctx, 2)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)

				_, err = svc.Leaderboard(ctx, -1)
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})

			Convey("Then podium, history and rank are served", func() {
				top, err := svc.Podium(ctx)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)

				rows, seasons, err := svc.History(ctx)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 4)
				So(seasons, ShouldEqual, 2)
				So(rows[0].Medal, ShouldEqual, model.MedalGold)

				e, err := svc.Rank(ctx, "ZOE bianchi")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 2)
			})

			Convey("Then stats describe the snapshot", func() {
				stats := svc.GetStats()
				So(stats["refreshes"], ShouldEqual, int64(1))
				So(stats["lastOutcome"], ShouldEqual, service.OutcomeSuccess)
				So(stats["competitors"], ShouldEqual, 3)
				So(stats["seasons"], ShouldEqual, 2)
				So(stats["imagesAttached"], ShouldEqual, 1)
				So(stats["snapshotID"], ShouldNotBeEmpty)
			})
		})

		Convey("When the image dataset fails", func() {
			loader.assetsErr = source.ErrFetch
			err := svc.Refresh(ctx)

			Convey("Then the leaderboard is published without images", func() {
				So(err, ShouldBeNil)
				entries, _ := svc.Leaderboard(ctx, 0)
				So(entries, ShouldHaveLength, 3)
				for _, e := range entries {
					So(e.HasImage(), ShouldBeFalse)
				}
			})
		})

		Convey("When the records fetch fails", func() {
			loader.set(nil, source.ErrFetch)
			err := svc.Refresh(ctx)

			Convey("Then the error surfaces and nothing is published", func() {
				So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
				_, err = svc.Podium(ctx)
				So(errors.Is(err, repository.ErrNoSnapshot), ShouldBeTrue)
				So(svc.GetStats()["lastOutcome"], ShouldEqual, service.OutcomeFetchError)
			})
		})

		Convey("When the headers stop resolving after a good refresh", func() {
			So(svc.Refresh(ctx), ShouldBeNil)
			loader.set([]model.RawRecord{{"Stagione": "2024/25", "Allenatore": "Zoë Bianchi"}}, nil)

			err := svc.Refresh(ctx)

			Convey("Then the schema error surfaces and nothing is rendered", func() {
				So(errors.Is(err, schema.ErrUnresolved), ShouldBeTrue)

				entries, err := svc.Leaderboard(ctx, 0)
				So(errors.Is(err, schema.ErrUnresolved), ShouldBeTrue)
				So(entries, ShouldBeEmpty)

				rows, _, err := svc.History(ctx)
				So(errors.Is(err, schema.ErrUnresolved), ShouldBeTrue)
				So(rows, ShouldBeEmpty)

				_, err = svc.Podium(ctx)
				So(errors.Is(err, schema.ErrUnresolved), ShouldBeTrue)
				_, err = svc.Rank(ctx, "Zoë Bianchi")
				So(errors.Is(err, schema.ErrUnresolved), ShouldBeTrue)

				stats := svc.GetStats()
				So(stats["lastOutcome"], ShouldEqual, service.OutcomeSchemaError)
				So(stats["lastError"], ShouldNotBeEmpty)
				So(stats["failures"], ShouldEqual, int64(1))
				So(stats["competitors"], ShouldEqual, 0)
			})

			Convey("Then the next good batch is served again", func() {
				loader.set(placements(), nil)
				So(svc.Refresh(ctx), ShouldBeNil)
				entries, err := svc.Leaderboard(ctx, 0)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
			})
		})

		Convey("When a skip reason disappears between refreshes", func() {
			loader.set(append(placements(),
				model.RawRecord{"Stagione": "2021/22", "Posizione": 4, "Allenatore": "Pino", "Squadra": "Gufi"},
			), nil)
			So(svc.Refresh(ctx), ShouldBeNil)
			n, ok := skippedGauge("off_podium")
			So(ok, ShouldBeTrue)
			So(n, ShouldEqual, 1)

			loader.set(placements(), nil)
			So(svc.Refresh(ctx), ShouldBeNil)

			Convey("Then the skipped gauge no longer reports it", func() {
				_, ok := skippedGauge("off_podium")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the dataset is empty", func() {
			loader.set([]model.RawRecord{}, nil)
			err := svc.Refresh(ctx)

			Convey("Then an empty leaderboard is published", func() {
				So(err, ShouldBeNil)
				entries, err := svc.Leaderboard(ctx, 0)
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service with a short refresh interval", t, func() {
		loader := &fakeLoader{records: placements(), src: assets.Empty()}
		svc := service.New(
			service.WithLoader(loader),
			service.WithRecordsURL("records.json"),
			service.WithRefreshInterval(10*time.Millisecond),
		)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it starts with the initial refresh published", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
				entries, err := svc.Leaderboard(ctx, 0)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
			})

			Convey("Then it keeps refreshing until stopped", func() {
				deadline := time.Now().Add(5 * time.Second)
				for loader.callCount() < 3 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(loader.callCount(), ShouldBeGreaterThanOrEqualTo, 3)

				svc.Stop()
				calls := loader.callCount()
				time.Sleep(50 * time.Millisecond)
				So(loader.callCount(), ShouldEqual, calls)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("Then starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When the initial refresh fails", func() {
			loader.set(nil, source.ErrFetch)
			err := svc.Start(ctx)

			Convey("Then the service still starts", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})
		})
	})
}
