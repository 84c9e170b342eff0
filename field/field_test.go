package field

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"
)

func TestParseGameMessage(t *testing.T) {
	for _, tc := range []struct {
		msg  string
		want Config
	}{
		{"LLL", Config{Left, Left, Left}},
		{"LRL", Config{Left, Right, Left}},
		{"RLR", Config{Right, Left, Right}},
		{"RRR", Config{Right, Right, Right}},
		{" lrl\n", Config{Left, Right, Left}},
		{"", UnknownConfig},
		{"LR", UnknownConfig},
		{"LRLR", UnknownConfig},
		{"LXL", UnknownConfig},
		{"LRR", UnknownConfig},
		{"CCC", UnknownConfig},
		{"???", UnknownConfig},
	} {
		t.Run(tc.msg, func(t *testing.T) {
			conf := ParseGameMessage(tc.msg)
			test.That(t, conf, test.ShouldResemble, tc.want)
			test.That(t, conf.Known(), test.ShouldEqual, tc.want != UnknownConfig)
		})
	}
}

func TestConfigSide(t *testing.T) {
	conf := ParseGameMessage("LRL")
	test.That(t, conf.Side(Switch), test.ShouldEqual, Left)
	test.That(t, conf.Side(Scale), test.ShouldEqual, Right)
	test.That(t, conf.String(), test.ShouldEqual, "LRL")
	test.That(t, UnknownConfig.Side(Scale), test.ShouldEqual, Unknown)
	test.That(t, UnknownConfig.String(), test.ShouldEqual, "unknown")
}

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{
		"left": Left, "L": Left, "Right": Right, "r": Right,
		"center": Center, "C": Center, "": Unknown, "unknown": Unknown,
	} {
		side, err := ParseSide(in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, side, test.ShouldEqual, want)
	}
	_, err := ParseSide("middle")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "middle")
}

func TestSideHelpers(t *testing.T) {
	test.That(t, Left.Opposite(), test.ShouldEqual, Right)
	test.That(t, Right.Opposite(), test.ShouldEqual, Left)
	test.That(t, Center.Opposite(), test.ShouldEqual, Center)
	test.That(t, Unknown.Opposite(), test.ShouldEqual, Unknown)
	test.That(t, Center.Lateral(), test.ShouldBeFalse)
	test.That(t, Side(42).String(), test.ShouldEqual, "unknown")
}

func TestSideJSON(t *testing.T) {
	var conf struct {
		Side Side `json:"side"`
	}
	test.That(t, json.Unmarshal([]byte(`{"side": "right"}`), &conf), test.ShouldBeNil)
	test.That(t, conf.Side, test.ShouldEqual, Right)

	out, err := json.Marshal(conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `{"side":"right"}`)

	test.That(t, json.Unmarshal([]byte(`{"side": "up"}`), &conf), test.ShouldNotBeNil)
}

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget("Scale")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, target, test.ShouldEqual, Scale)
	target, err = ParseTarget("switch")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, target, test.ShouldEqual, Switch)
	_, err = ParseTarget("vault")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, Scale.String(), test.ShouldEqual, "scale")
}
