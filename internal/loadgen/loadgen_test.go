package loadgen

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/adapters/http/api"
	"github.com/okian/brokerflow/internal/adapters/kvstore"
	service "github.com/okian/brokerflow/internal/app"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type echoGenerator struct{}

func (echoGenerator) Generate(context.Context, string, string) (string, error) { return "{}", nil }

func TestGenerateSinglePolicy(t *testing.T) {
	Convey("Given today's date", t, func() {
		today := model.NewDate(2025, time.April, 1)

		Convey("Then every generated input should pass validation", func() {
			for i := 0; i < 200; i++ {
				in := generateSinglePolicy(i, today)
				So(in.Validate(), ShouldBeNil)
				So(in.Claims, ShouldBeBetweenOrEqual, 0, 4)
				So(*in.Premium, ShouldBeGreaterThanOrEqualTo, smallPremiumMin)
				So(in.ExpiryDate.Time, ShouldHappenOnOrAfter, today.AddDays(expiryMinOffset).Time)
				So(in.ExpiryDate.Time, ShouldHappenBefore, today.AddDays(expiryMinOffset+expirySpan).Time)
			}
		})
	})
}

func TestVerifyRanking(t *testing.T) {
	Convey("Given weights and a consistent ranking", t, func() {
		w := model.DefaultWeights()
		ranked := []model.ScoredPolicy{
			{Policy: model.Policy{ID: "POL-001", Premium: 200000}, Rank: 1, DaysToExpiry: 0, PriorityScore: 80},
			{Policy: model.Policy{ID: "POL-002", Premium: 100000, Claims: 1}, Rank: 2, DaysToExpiry: 45, PriorityScore: 36},
		}
		created := []model.Policy{{ID: "POL-002"}}

		Convey("Then verification should pass", func() {
			So(verifyRanking(w, ranked, created), ShouldBeNil)
		})

		Convey("When a created policy is missing", func() {
			err := verifyRanking(w, ranked, []model.Policy{{ID: "POL-404"}})

			Convey("Then it should be reported", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "POL-404")
			})
		})

		Convey("When the order is inverted", func() {
			ranked[0], ranked[1] = ranked[1], ranked[0]
			ranked[0].Rank, ranked[1].Rank = 1, 2

			Convey("Then it should be reported", func() {
				err := verifyRanking(w, ranked, created)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "outranks")
			})
		})

		Convey("When a score disagrees with the weights", func() {
			ranked[1].PriorityScore = 35

			Convey("Then it should be reported", func() {
				err := verifyRanking(w, ranked, created)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "expected 36.0")
			})
		})

		Convey("When the ranking is empty", func() {
			So(verifyRanking(w, nil, nil), ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running BrokerFlow API", t, func() {
		svc := service.New(
			service.WithKV(kvstore.NewMemory()),
			service.WithGenerator(echoGenerator{}),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		srv := httptest.NewServer(api.NewServer(svc).Router())
		defer srv.Close()
		defer svc.Stop(context.Background())

		out := filepath.Join(t.TempDir(), "out", "policies.json")
		config := &Config{
			BaseURL:     srv.URL,
			NumPolicies: 40,
			Workers:     4,
			Timeout:     5 * time.Second,
			AdvanceRate: 0.5,
			TopN:        3,
			OutputFile:  out,
		}

		Convey("When a load run completes", func() {
			stats, err := Run(context.Background(), config)

			Convey("Then every policy should be created and ranked", func() {
				So(err, ShouldBeNil)
				So(stats.PoliciesGenerated, ShouldEqual, 40)
				So(stats.PoliciesCreated, ShouldEqual, 40)
				So(stats.PoliciesFailed, ShouldEqual, 0)
				So(stats.StatusAdvanced, ShouldEqual, 20)
				So(stats.RankedEntries, ShouldEqual, 45)
			})

			Convey("Then the advanced policies should be Drafted", func() {
				counts := svc.Summary(context.Background()).StatusCounts
				So(counts[string(model.StatusDrafted)], ShouldBeGreaterThanOrEqualTo, 20)
			})

			Convey("Then the generated inputs should be saved", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved []model.PolicyInput
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved, ShouldHaveLength, 40)
			})
		})
	})
}
