package brief_test

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/internal/domain/brief"
	"github.com/okian/brokerflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const wellFormed = `{
  "riskAssessment": "Moderate cyber exposure",
  "marketConditions": "Hardening market",
  "recommendedActions": ["Review limits", "Quote early"],
  "pricingStrategy": "Hold rate",
  "retentionRisk": "Low",
  "keyTalkingPoints": ["No claims"],
  "competitorAnalysis": "Two carriers circling",
  "renewalProbability": "85%"
}`

func TestParse(t *testing.T) {
	Convey("Given generated replies", t, func() {
		Convey("When the reply is plain JSON", func() {
			b, ok := brief.Parse(wellFormed)

			Convey("Then it should decode every field", func() {
				So(ok, ShouldBeTrue)
				So(b.RiskAssessment, ShouldEqual, "Moderate cyber exposure")
				So(b.RecommendedActions, ShouldResemble, []string{"Review limits", "Quote early"})
				So(string(b.RenewalProbability), ShouldEqual, "85%")
			})
		})

		Convey("When the reply is wrapped in a markdown fence", func() {
			b, ok := brief.Parse("```json\n" + wellFormed + "\n```")

			Convey("Then the fence should be stripped", func() {
				So(ok, ShouldBeTrue)
				So(b.RetentionRisk, ShouldEqual, "Low")
			})
		})

		Convey("When the probability is a number", func() {
			b, ok := brief.Parse(`{"riskAssessment":"x","renewalProbability":72.5}`)
			So(ok, ShouldBeTrue)
			So(string(b.RenewalProbability), ShouldEqual, "72.5%")
		})

		Convey("When the reply is prose", func() {
			b, ok := brief.Parse("Sure! Here is your renewal analysis: the client looks stable.")

			Convey("Then the fallback brief should be returned", func() {
				So(ok, ShouldBeFalse)
				So(b, ShouldResemble, brief.Fallback())
				So(b.RiskAssessment, ShouldEqual, "Analysis generated successfully but formatting needs review.")
				So(string(b.RenewalProbability), ShouldEqual, "75%")
			})
		})

		Convey("When the reply is blank", func() {
			_, ok := brief.Parse("  \n ")
			So(ok, ShouldBeFalse)
		})

		Convey("When the reply decodes to nothing", func() {
			for _, reply := range []string{"null", "{}", "```json\n{}\n```"} {
				b, ok := brief.Parse(reply)
				So(ok, ShouldBeFalse)
				So(b, ShouldResemble, brief.Fallback())
			}
		})
	})
}

func TestFallbackEncoding(t *testing.T) {
	Convey("Given the fallback brief", t, func() {
		out, err := json.Marshal(brief.Fallback())
		So(err, ShouldBeNil)
		So(string(out), ShouldContainSubstring, `"retentionRisk":"Medium"`)
		So(string(out), ShouldContainSubstring, `"renewalProbability":"75%"`)
	})
}

func TestContext(t *testing.T) {
	Convey("Given the seed correspondence", t, func() {
		src := brief.SeedContext()

		So(src.Lookup("POL-004"), ShouldContainSubstring, "warehouse in Austin")
		So(src.Lookup("POL-005"), ShouldEqual, brief.DefaultEmailContext)
		So(src.Lookup(""), ShouldEqual, brief.DefaultEmailContext)
	})
}

func TestBuildPrompt(t *testing.T) {
	Convey("Given a policy", t, func() {
		p := model.Policy{
			ID:         "POL-002",
			Client:     "Globex Inc",
			Industry:   "Logistics",
			Type:       "General Liability",
			Premium:    12500,
			ExpiryDate: model.NewDate(2025, time.April, 20),
			Claims:     2,
			SourceID:   "SFDC-3321",
		}

		Convey("When building the prompt", func() {
			prompt := brief.BuildPrompt(p, brief.SeedContext().Lookup(p.ID))

			Convey("Then it should carry the policy attributes and context", func() {
				So(prompt, ShouldContainSubstring, "- Client: Globex Inc")
				So(prompt, ShouldContainSubstring, "- Current Premium: $12,500")
				So(prompt, ShouldContainSubstring, "- Expiry Date: 2025-04-20")
				So(prompt, ShouldContainSubstring, "- Claims History: 2 claims")
				So(prompt, ShouldContainSubstring, "Claim #992")
				So(prompt, ShouldContainSubstring, `"renewalProbability"`)
			})
		})
	})
}

func TestFormatAmount(t *testing.T) {
	Convey("Given amounts", t, func() {
		So(brief.FormatAmount(0), ShouldEqual, "0")
		So(brief.FormatAmount(999), ShouldEqual, "999")
		So(brief.FormatAmount(220000), ShouldEqual, "220,000")
		So(brief.FormatAmount(1234567.5), ShouldEqual, "1,234,567.5")
		So(brief.FormatAmount(-45000), ShouldEqual, "-45,000")
	})
}

func TestTracker(t *testing.T) {
	Convey("Given a new tracker", t, func() {
		tr := brief.NewTracker()

		Convey("Then it should start idle", func() {
			So(tr.Snapshot().State, ShouldEqual, brief.StateIdle)
		})

		Convey("When a request runs to completion", func() {
			id := tr.Begin("POL-001")
			So(tr.Snapshot().State, ShouldEqual, brief.StateFetching)
			So(tr.Analyzing(id), ShouldBeTrue)
			So(tr.Snapshot().State, ShouldEqual, brief.StateAnalyzing)
			So(tr.Complete(id, brief.Fallback(), true), ShouldBeTrue)

			Convey("Then the snapshot should hold the brief", func() {
				s := tr.Snapshot()
				So(s.State, ShouldEqual, brief.StateComplete)
				So(s.PolicyID, ShouldEqual, "POL-001")
				So(s.Fallback, ShouldBeTrue)
				So(s.Brief, ShouldNotBeNil)
			})
		})

		Convey("When a second request is submitted before the first finishes", func() {
			first := tr.Begin("POL-001")
			second := tr.Begin("POL-002")

			Convey("Then only the latest request should move the tracker", func() {
				So(first, ShouldNotEqual, second)
				So(tr.IsCurrent(first), ShouldBeFalse)
				So(tr.Complete(first, brief.Fallback(), true), ShouldBeFalse)
				So(tr.Snapshot().State, ShouldEqual, brief.StateFetching)
				So(tr.Snapshot().PolicyID, ShouldEqual, "POL-002")
			})
		})

		Convey("When a request fails", func() {
			id := tr.Begin("POL-003")
			tr.Analyzing(id)
			So(tr.Reset(id), ShouldBeTrue)

			Convey("Then the tracker should be idle with no brief", func() {
				s := tr.Snapshot()
				So(s.State, ShouldEqual, brief.StateIdle)
				So(s.Brief, ShouldBeNil)
			})
		})

		Convey("When the snapshot is modified by the caller", func() {
			id := tr.Begin("POL-001")
			tr.Complete(id, brief.Fallback(), false)
			s := tr.Snapshot()
			s.Brief.RiskAssessment = "changed"

			Convey("Then the tracker should be unaffected", func() {
				So(tr.Snapshot().Brief.RiskAssessment, ShouldEqual, brief.Fallback().RiskAssessment)
			})
		})

		Convey("When the caller edits the lists of a snapshot", func() {
			id := tr.Begin("POL-001")
			tr.Complete(id, brief.Fallback(), false)
			s := tr.Snapshot()
			s.Brief.RecommendedActions[0] = "changed"
			s.Brief.KeyTalkingPoints[0] = "changed"

			Convey("Then the stored lists should be unaffected", func() {
				stored := tr.Snapshot().Brief
				So(stored.RecommendedActions, ShouldResemble, brief.Fallback().RecommendedActions)
				So(stored.KeyTalkingPoints, ShouldResemble, brief.Fallback().KeyTalkingPoints)
			})
		})
	})
}
