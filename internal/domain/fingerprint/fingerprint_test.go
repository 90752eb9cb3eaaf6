package fingerprint_test

import (
	"testing"

	"github.com/okian/coinop/internal/domain/fingerprint"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHash(t *testing.T) {
	Convey("Given a hasher with a pepper", t, func() {
		h := fingerprint.NewHasher("pepper")

		Convey("Hashing is deterministic", func() {
			So(h.Hash("203.0.113.7"), ShouldEqual, h.Hash("203.0.113.7"))
		})

		Convey("Different addresses map to different buckets", func() {
			So(h.Hash("203.0.113.7"), ShouldNotEqual, h.Hash("203.0.113.8"))
		})

		Convey("The pepper changes the hash", func() {
			other := fingerprint.NewHasher("other")
			So(h.Hash("203.0.113.7"), ShouldNotEqual, other.Hash("203.0.113.7"))
		})

		Convey("The output is 64 hex characters", func() {
			So(h.Hash("203.0.113.7"), ShouldHaveLength, 64)
		})
	})
}

func TestClientAddr(t *testing.T) {
	Convey("Given X-Forwarded-For header values", t, func() {
		Convey("The first hop wins", func() {
			So(fingerprint.ClientAddr("203.0.113.7, 10.0.0.1, 10.0.0.2"), ShouldEqual, "203.0.113.7")
		})

		Convey("Whitespace is trimmed", func() {
			So(fingerprint.ClientAddr("  203.0.113.7 "), ShouldEqual, "203.0.113.7")
		})

		Convey("An absent header yields an empty address", func() {
			So(fingerprint.ClientAddr(""), ShouldEqual, "")
		})
	})
}
