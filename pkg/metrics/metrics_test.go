package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// sample returns the value of the global metric name whose labels include
// every given name/value pair.
func sample(name string, labels ...string) float64 {
	families, err := GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metric:
		for _, m := range f.GetMetric() {
			for i := 0; i+1 < len(labels); i += 2 {
				var ok bool
				for _, l := range m.GetLabel() {
					if l.GetName() == labels[i] && l.GetValue() == labels[i+1] {
						ok = true
					}
				}
				if !ok {
					continue metric
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.gamesLoaded.WithLabelValues("persisted").Inc()

			Convey("Then metric names and labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() != "test_namespace_test_subsystem_games_loaded_total" {
						continue
					}
					found = true
					labels := f.GetMetric()[0].GetLabel()
					var env string
					for _, l := range labels {
						if l.GetName() == "env" {
							env = l.GetValue()
						}
					}
					So(env, ShouldEqual, "test")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "breakingball")
				So(manager.subsystem, ShouldEqual, "loader")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestLoadMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a game is recorded as persisted", func() {
			before := sample("breakingball_loader_games_loaded_total", "state", "persisted")
			RecordGameLoaded("persisted")

			Convey("Then the state counter grows by one", func() {
				So(sample("breakingball_loader_games_loaded_total", "state", "persisted"), ShouldEqual, before+1)
			})
		})

		Convey("When records are written", func() {
			before := sample("breakingball_loader_records_written_total", "table", "pitches")
			RecordRecordsWritten("pitches", 9)

			Convey("Then the table counter grows by the batch size", func() {
				So(sample("breakingball_loader_records_written_total", "table", "pitches"), ShouldEqual, before+9)
			})
		})

		Convey("When fetches and warnings are recorded", func() {
			So(func() {
				RecordFetchAttempt("linescore")
				RecordFetchFailure("boxscore", "not_found")
				RecordFetchLatency(12)
				RecordExtractWarning("timestamp")
				RecordConflictFallback()
				RecordLoadLatency(40)
				RecordPersistLatency(8)
				RecordJobDuplicate()
			}, ShouldNotPanic)

			Convey("Then they are gathered from the custom registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "breakingball_loader_fetch_failures_total")
				So(sample("breakingball_loader_fetch_failures_total", "document", "boxscore", "reason", "not_found"), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}

func TestOperationalMetrics(t *testing.T) {
	Convey("Given queue and worker metrics", t, func() {
		Convey("When the queue is updated", func() {
			UpdateQueueCapacity(100)
			UpdateQueueSize(25)
			UpdateQueueUtilization(0.25)

			Convey("Then the gauges hold the last value", func() {
				So(sample("breakingball_loader_queue_capacity"), ShouldEqual, 100)
				So(sample("breakingball_loader_queue_size"), ShouldEqual, 25)
				So(sample("breakingball_loader_queue_utilization_ratio"), ShouldEqual, 0.25)
			})
		})

		Convey("When workers report", func() {
			So(func() {
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(3)
				RecordWorkerProcessingLatency(5)
				RecordWorkerError()
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(1)
				RecordHTTPRequest("/loads", "POST", "202")
				RecordHTTPRequestDuration("/loads", "POST", "202", 3)
				RecordErrorByComponent("loader", "persistence")
			}, ShouldNotPanic)

			Convey("Then the worker gauge is set", func() {
				So(sample("breakingball_loader_worker_count"), ShouldEqual, 4)
			})
		})
	})
}
