package rewards_test

import (
	"context"
	"testing"

	"github.com/okian/brokerflow/internal/adapters/kvstore"
	"github.com/okian/brokerflow/internal/domain/model"
	"github.com/okian/brokerflow/internal/domain/pipeline"
	"github.com/okian/brokerflow/internal/domain/rewards"
	"github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	convey.Convey("Given a ledger over an empty store", t, func() {
		ctx := context.Background()
		kv := kvstore.NewMemory()
		l := rewards.NewLedger(kv, kvstore.KeyCoins, nil)
		convey.So(l.Load(ctx), convey.ShouldBeNil)

		convey.Convey("Then the balance should start at zero", func() {
			convey.So(l.Balance(), convey.ShouldEqual, 0)
		})

		convey.Convey("When a Sent transition is observed", func() {
			tr, _ := pipeline.Apply(model.StatusDrafted, model.StatusSent)
			l.OnTransition(ctx, pipeline.NewEvent("POL-003", tr))

			convey.Convey("Then two coins should be credited and persisted", func() {
				convey.So(l.Balance(), convey.ShouldEqual, 2)
				raw, _, _ := kv.Get(ctx, kvstore.KeyCoins)
				convey.So(raw, convey.ShouldEqual, "2")
			})
		})

		convey.Convey("When a non-rewardable transition is observed", func() {
			tr, _ := pipeline.Apply(model.StatusDetected, model.StatusDrafted)
			l.OnTransition(ctx, pipeline.NewEvent("POL-001", tr))
			convey.So(l.Balance(), convey.ShouldEqual, 0)
		})

		convey.Convey("When coins are credited directly", func() {
			balance, err := l.Credit(ctx, rewards.CoinsBriefCreated, "brief created")
			convey.So(err, convey.ShouldBeNil)
			convey.So(balance, convey.ShouldEqual, 1)
		})

		convey.Convey("When the ledger is reloaded", func() {
			_, _ = l.Credit(ctx, rewards.CoinsPolicyAdded, "policy added")
			again := rewards.NewLedger(kv, kvstore.KeyCoins, nil)
			convey.So(again.Load(ctx), convey.ShouldBeNil)
			convey.So(again.Balance(), convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given a garbage persisted balance", t, func() {
		ctx := context.Background()
		kv := kvstore.NewMemory()
		_ = kv.Set(ctx, kvstore.KeyCoins, "lots")
		l := rewards.NewLedger(kv, kvstore.KeyCoins, nil)
		convey.So(l.Load(ctx), convey.ShouldBeNil)
		convey.So(l.Balance(), convey.ShouldEqual, 0)
	})
}
