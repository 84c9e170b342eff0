package utils

import (
	"testing"

	"go.viam.com/test"
)

type rotateAttrs struct {
	AngleDeg float64 `json:"angle_deg"`
	Speed    float64 `json:"speed"`
	Hold     bool    `json:"hold,omitempty"`
	Ticks    int64   `json:"ticks"`
}

func TestDecodeAttributes(t *testing.T) {
	t.Run("json numbers", func(t *testing.T) {
		conf, err := DecodeAttributes[rotateAttrs](AttributeMap{
			"angle_deg": -45.0,
			"speed":     0.5,
			"ticks":     float64(300),
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, conf.AngleDeg, test.ShouldEqual, -45.0)
		test.That(t, conf.Speed, test.ShouldEqual, 0.5)
		test.That(t, conf.Hold, test.ShouldBeFalse)
		test.That(t, conf.Ticks, test.ShouldEqual, int64(300))
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := DecodeAttributes[rotateAttrs](AttributeMap{"angle": 90.0})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "angle")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := DecodeAttributes[rotateAttrs](AttributeMap{"hold": "yes"})
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("nil map", func(t *testing.T) {
		conf, err := DecodeAttributes[rotateAttrs](nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, *conf, test.ShouldResemble, rotateAttrs{})
	})
}

func TestAttributeMap(t *testing.T) {
	am := AttributeMap{"rotate": 0.4, "count": 3, "name": "spit"}
	test.That(t, am.Has("rotate"), test.ShouldBeTrue)
	test.That(t, am.Has("forward"), test.ShouldBeFalse)
	test.That(t, am.Float64("rotate", 0), test.ShouldEqual, 0.4)
	test.That(t, am.Float64("count", 0), test.ShouldEqual, 3.0)
	test.That(t, am.Float64("name", -1), test.ShouldEqual, -1.0)
	test.That(t, am.Float64("missing", 7), test.ShouldEqual, 7.0)

	cloned := am.Clone()
	cloned["rotate"] = -0.4
	test.That(t, am["rotate"], test.ShouldEqual, 0.4)
	test.That(t, AttributeMap(nil).Clone(), test.ShouldBeNil)
}
