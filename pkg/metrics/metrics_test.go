package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "podium")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names carry the namespace and prefix", func() {
				manager.competitors.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_prefix_competitors" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording refresh cycles", func() {
			before := testutil.ToFloat64(globalManager.refreshes.WithLabelValues("ok"))
			RecordRefresh("ok", 12)
			RecordRefresh("schema_error", 3)

			Convey("Then outcomes are counted separately", func() {
				So(testutil.ToFloat64(globalManager.refreshes.WithLabelValues("ok")), ShouldEqual, before+1)
			})
		})

		Convey("When updating snapshot gauges", func() {
			UpdateRecords(40)
			UpdateRecordsSkipped(map[string]int{"off_podium": 7})
			UpdateCompetitors(9)
			UpdateSeasons(12)
			UpdateAssets(8, 5)
			UpdateSnapshotLastUnix(1700000000)

			Convey("Then they hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.recordsIngested), ShouldEqual, 40)
				So(testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues("off_podium")), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.competitors), ShouldEqual, 9)
				So(testutil.ToFloat64(globalManager.imagesAttached), ShouldEqual, 5)
			})
		})

		Convey("When a skip reason disappears from the next snapshot", func() {
			UpdateRecordsSkipped(map[string]int{"off_podium": 1, "no_position": 2})
			UpdateRecordsSkipped(map[string]int{"no_position": 1})

			Convey("Then the stale reason is dropped", func() {
				So(testutil.CollectAndCount(globalManager.recordsSkipped), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues("no_position")), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.recordsSkipped.WithLabelValues("off_podium")), ShouldEqual, 0)
			})
		})

		Convey("When reading the sampling interval", func() {
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithRefreshInterval(time.Second))
			So(manager.refreshInterval, ShouldEqual, time.Second)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordFetchDuration("records", 20)
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 1.5)
				RecordErrorByComponent("source", "fetch")
				RecordErrorByType("client_error", "medium")
				RecordErrorByEndpoint("rank", "GET", "not_found")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("When gathering the registry", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var names []string
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "podium_leaderboard_")
		})
	})
}
