package validate_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/okian/coinop/internal/domain/model"
	"github.com/okian/coinop/internal/domain/token"
	"github.com/okian/coinop/internal/domain/validate"
	. "github.com/smartystreets/goconvey/convey"
)

func reasonOf(err error) validate.Reason {
	var rej *validate.Rejection
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return ""
}

func TestCheckOrderAndReasons(t *testing.T) {
	Convey("Given a validator backed by a real token service", t, func() {
		now := time.Unix(1_700_000_000, 0)
		clock := func() time.Time { return now }
		tokens := token.New("test-secret", token.WithClock(clock))
		v := validate.New(tokens, validate.WithClock(clock))

		tok := tokens.Issue().String()
		good := model.Submission{
			Username: "Ace_01",
			Score:    500,
			TS:       now.Unix(),
			Sig:      fmt.Sprintf("%s|%d", tok, now.Unix()),
		}

		Convey("A well-formed submission passes", func() {
			So(v.Check(good), ShouldBeNil)
		})

		Convey("A negative score is rejected", func() {
			sub := good
			sub.Score = -1
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonInvalidScore)
		})

		Convey("A NaN score is rejected", func() {
			sub := good
			sub.Score = math.NaN()
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonInvalidScore)
		})

		Convey("An over-long username is rejected", func() {
			sub := good
			sub.Username = "ThisNameIsWayTooLong"
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonInvalidIdentity)
		})

		Convey("Disallowed characters are rejected", func() {
			sub := good
			sub.Username = "nice<script>"
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonInvalidIdentity)
		})

		Convey("Profanity is rejected case-insensitively", func() {
			sub := good
			sub.Username = "ShItLord"
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonProfanity)
		})

		Convey("A missing sig is rejected", func() {
			sub := good
			sub.Sig = ""
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonMissingToken)
		})

		Convey("A missing ts is rejected", func() {
			sub := good
			sub.TS = 0
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonMissingToken)
		})

		Convey("A sig without a separator is rejected", func() {
			sub := good
			sub.Sig = tok
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonMalformedSig)
		})

		Convey("A sig with two separators is rejected", func() {
			sub := good
			sub.Sig = fmt.Sprintf("%s|%d|extra", tok, now.Unix())
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonMalformedSig)
		})

		Convey("A forged token is rejected", func() {
			other := token.New("other-secret", token.WithClock(clock)).Issue().String()
			sub := good
			sub.Sig = fmt.Sprintf("%s|%d", other, now.Unix())
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonInvalidToken)
		})

		Convey("A non-numeric client timestamp is rejected as skew", func() {
			sub := good
			sub.Sig = tok + "|soon"
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonClockSkew)
		})

		Convey("A client clock 1000s ahead is rejected", func() {
			sub := good
			sub.Sig = fmt.Sprintf("%s|%d", tok, now.Unix()+1000)
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonClockSkew)
		})

		Convey("A client clock exactly 900s behind is tolerated", func() {
			sub := good
			sub.Sig = fmt.Sprintf("%s|%d", tok, now.Unix()-900)
			So(v.Check(sub), ShouldBeNil)
		})

		Convey("A score above the ceiling is rejected", func() {
			sub := good
			sub.Score = 3_000_000_000
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonScoreTooLarge)
		})

		Convey("The first failing check wins when several fail", func() {
			sub := good
			sub.Score = -5
			sub.Username = "shithead"
			sub.Sig = ""
			So(reasonOf(v.Check(sub)), ShouldEqual, validate.ReasonInvalidScore)
		})

		Convey("Rejection is idempotent", func() {
			sub := good
			sub.Username = "???"
			first := reasonOf(v.Check(sub))
			second := reasonOf(v.Check(sub))
			So(first, ShouldEqual, second)
		})
	})
}

func TestReasonTaxonomy(t *testing.T) {
	Convey("Reasons map to the expected error kinds", t, func() {
		So(validate.ReasonInvalidScore.Kind(), ShouldEqual, validate.KindShape)
		So(validate.ReasonMissingToken.Kind(), ShouldEqual, validate.KindShape)
		So(validate.ReasonInvalidToken.Kind(), ShouldEqual, validate.KindAuth)
		So(validate.ReasonClockSkew.Kind(), ShouldEqual, validate.KindAuth)
		So(validate.ReasonProfanity.Kind(), ShouldEqual, validate.KindPolicy)
		So(validate.ReasonScoreTooLarge.Kind(), ShouldEqual, validate.KindPolicy)
	})

	Convey("Every reason has a client-facing message", t, func() {
		for _, r := range []validate.Reason{
			validate.ReasonInvalidScore,
			validate.ReasonInvalidIdentity,
			validate.ReasonProfanity,
			validate.ReasonMissingToken,
			validate.ReasonMalformedSig,
			validate.ReasonInvalidToken,
			validate.ReasonClockSkew,
			validate.ReasonScoreTooLarge,
		} {
			So(r.Message(), ShouldNotEqual, "")
			So(r.Message(), ShouldNotEqual, "Rejected")
		}
	})
}
