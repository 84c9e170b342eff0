package vision

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestPacketValidate(t *testing.T) {
	test.That(t, Packet{Sender: "vision", Object: "cube", Angle: 15, ID: 1}.Validate(), test.ShouldBeNil)
	test.That(t, Packet{Sender: "driverstation"}.Validate(), test.ShouldBeNil)

	err := Packet{Object: "cube"}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no sender")

	err = Packet{Sender: "vision", Angle: 3}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no object")

	err = Packet{Sender: "vision", Object: "cube", Angle: math.NaN()}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "non-finite")
	test.That(t, Packet{Sender: "vision", Object: "cube", Angle: math.Inf(-1)}.Validate(), test.ShouldNotBeNil)
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}

	t.Run("decodes the vision process format", func(t *testing.T) {
		p, err := codec.Decode([]byte(`{"sender": "vision", "object": "retroreflective", "angle": -7.5, "id": 42}`))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p, test.ShouldResemble, Packet{Sender: "vision", Object: "retroreflective", Angle: -7.5, ID: 42})
	})

	t.Run("ignores unknown fields", func(t *testing.T) {
		p, err := codec.Decode([]byte(`{"sender": "vision", "object": "cube", "angle": 1, "id": 2, "fps": 30}`))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.Angle, test.ShouldEqual, 1.0)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := codec.Decode([]byte(`{"sender": "vision", "angle":`))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "decoding json packet")
	})

	t.Run("rejects a wrongly typed angle", func(t *testing.T) {
		_, err := codec.Decode([]byte(`{"sender": "vision", "object": "cube", "angle": "left"}`))
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("round trips", func(t *testing.T) {
		in := Packet{Sender: "vision", Object: "cube", Angle: 12.25, ID: -2}
		data, err := codec.Encode(in)
		test.That(t, err, test.ShouldBeNil)
		out, err := codec.Decode(data)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldResemble, in)
	})
}

func TestMsgpackCodec(t *testing.T) {
	codec := MsgpackCodec{}
	in := Packet{Sender: "vision", Object: "cube", Angle: -3.5, ID: 9}
	data, err := codec.Encode(in)
	test.That(t, err, test.ShouldBeNil)
	out, err := codec.Decode(data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, in)

	_, err = codec.Decode([]byte(`{"sender": "vision"}`))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]string{"": "json", "json": "json", "JSON": "json", "msgpack": "msgpack"} {
		codec, err := CodecByName(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, codec.Name(), test.ShouldEqual, want)
	}
	_, err := CodecByName("protobuf")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown vision codec")
}
