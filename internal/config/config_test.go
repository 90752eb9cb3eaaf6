package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		c := New()

		Convey("Then the anti-abuse defaults match the documented values", func() {
			So(c.TokenTTLSecs, ShouldEqual, 900)
			So(c.ClockSkewSecs, ShouldEqual, 900)
			So(c.RateLimitPerMin, ShouldEqual, 10)
			So(c.RateWindowSecs, ShouldEqual, 60)
			So(c.MaxScore, ShouldEqual, 2_000_000_000)
		})

		Convey("Then the read path defaults are sane", func() {
			So(c.DefaultLeaderboardLimit, ShouldEqual, 100)
			So(c.MaxLeaderboardLimit, ShouldEqual, 1000)
		})

		Convey("Then secrets have no defaults", func() {
			So(c.HMACSecret, ShouldEqual, "")
			So(c.Pepper, ShouldEqual, "")
			So(c.StoreServiceKey, ShouldEqual, "")
		})

		Convey("Then the burst guard is off by default", func() {
			So(c.SubmitBurstRPS, ShouldEqual, 0)
		})
	})
}
