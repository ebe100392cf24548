package notify_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/brokerflow/internal/adapters/notify"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFeed(t *testing.T) {
	Convey("Given a feed with capacity three", t, func() {
		f := notify.NewFeed(notify.WithCapacity(3))
		ctx := context.Background()

		Convey("When fewer messages than capacity are emitted", func() {
			f.Notify(ctx, "Policy POL-001 status updated to Drafted", notify.SeveritySuccess)
			f.Notify(ctx, "Failed to generate analysis", notify.SeverityError)

			Convey("Then Recent should return them newest first", func() {
				got := f.Recent(0)
				So(got, ShouldHaveLength, 2)
				So(got[0].Severity, ShouldEqual, notify.SeverityError)
				So(got[1].Message, ShouldEqual, "Policy POL-001 status updated to Drafted")
				So(got[0].ID, ShouldNotEqual, got[1].ID)
				So(got[0].CreatedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When more messages than capacity are emitted", func() {
			for i := 1; i <= 5; i++ {
				f.Notify(ctx, fmt.Sprintf("message %d", i), notify.SeverityInfo)
			}

			Convey("Then only the newest should be kept", func() {
				So(f.Len(), ShouldEqual, 3)
				got := f.Recent(2)
				So(got, ShouldHaveLength, 2)
				So(got[0].Message, ShouldEqual, "message 5")
				So(got[1].Message, ShouldEqual, "message 4")
				So(f.Recent(10)[2].Message, ShouldEqual, "message 3")
			})
		})
	})
}
