package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the brokerflow namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "brokerflow")
				So(manager.subsystem, ShouldEqual, "renewals")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("pipeline"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "pipeline")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})

			Convey("And empty values should keep defaults", func() {
				other := NewManager(WithNamespace(""), WithSubsystem(""), WithPrometheusRegistry(prometheus.NewRegistry()))
				So(other.namespace, ShouldEqual, "brokerflow")
				So(other.subsystem, ShouldEqual, "renewals")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording status transitions", func() {
			before := testutil.ToFloat64(globalManager.statusTransitions.WithLabelValues("Drafted", "Sent"))
			RecordStatusTransition("Drafted", "Sent")
			RecordStatusTransition("Drafted", "Sent")

			Convey("Then the labelled counter should grow", func() {
				after := testutil.ToFloat64(globalManager.statusTransitions.WithLabelValues("Drafted", "Sent"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When updating gauges", func() {
			UpdatePolicyCount(7)
			UpdateRewardBalance(12)
			UpdateBriefQueueLength(3)

			Convey("Then the gauges should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.policiesTotal), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.rewardBalance), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.briefQueueLength), ShouldEqual, 3)
			})
		})

		Convey("When recording the remaining helpers", func() {
			So(func() {
				RecordPolicyAdded()
				RecordPolicyRemoved()
				RecordRejectedTransition("Sent", "Drafted")
				RecordRankComputation(0.2)
				RecordBriefRequested()
				RecordBriefOutcome("fallback")
				RecordBriefLatency(420)
				RecordBriefQueueError("queue_full")
				RecordNotification("info")
				RecordStoreOperation("memory", "get", "hit", 0.01)
				RecordHTTPRequest("policies", "GET", "200")
				RecordHTTPRequestDuration("policies", "GET", "200", 1.5)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then only brokerflow metrics should be exposed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "brokerflow_renewals_"), ShouldBeTrue)
				}
			})
		})
	})
}
