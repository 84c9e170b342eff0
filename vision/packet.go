// Package vision receives target bearings from the off-board vision process and serves the
// latest one per object to the motion primitives.
package vision

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// SenderVision is the sender of packets that carry bearings. Packets from other senders only
// count as link activity.
const SenderVision = "vision"

// DefaultPort is the UDP port the vision process sends to.
const DefaultPort = 5880

// Default addresses for a receiver and for a sender on the same host.
const (
	DefaultListenAddress = ":5880"
	DefaultSendAddress   = "127.0.0.1:5880"
)

// Packet is one message from the vision process.
type Packet struct {
	Sender string `json:"sender" msgpack:"sender"`
	// Object is the class of the detected target, e.g. "cube" or "retroreflective".
	Object string `json:"object" msgpack:"object"`
	// Angle is the horizontal bearing to the target in degrees, positive clockwise.
	Angle float64 `json:"angle" msgpack:"angle"`
	// ID is a sequence number. Duplicates and reordering are tolerated.
	ID int64 `json:"id" msgpack:"id"`
}

// Validate rejects packets that cannot be recorded.
func (p Packet) Validate() error {
	if p.Sender == "" {
		return errors.New("packet has no sender")
	}
	if p.Sender != SenderVision {
		return nil
	}
	if p.Object == "" {
		return errors.New("vision packet has no object")
	}
	if math.IsNaN(p.Angle) || math.IsInf(p.Angle, 0) {
		return errors.Errorf("vision packet for %q has a non-finite angle", p.Object)
	}
	return nil
}

// A Codec converts packets to and from datagrams.
type Codec interface {
	Name() string
	Decode(data []byte) (Packet, error)
	Encode(p Packet) ([]byte, error)
}

// JSONCodec encodes packets as JSON objects, the format the vision process sends by default.
type JSONCodec struct{}

// Name returns "json".
func (JSONCodec) Name() string { return "json" }

// Decode parses and validates one JSON packet.
func (JSONCodec) Decode(data []byte) (Packet, error) {
	var p Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return Packet{}, errors.Wrap(err, "decoding json packet")
	}
	return p, p.Validate()
}

// Encode marshals p as JSON.
func (JSONCodec) Encode(p Packet) ([]byte, error) {
	return json.Marshal(p)
}

// MsgpackCodec encodes packets as msgpack maps.
type MsgpackCodec struct{}

// Name returns "msgpack".
func (MsgpackCodec) Name() string { return "msgpack" }

// Decode parses and validates one msgpack packet.
func (MsgpackCodec) Decode(data []byte) (Packet, error) {
	var p Packet
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return Packet{}, errors.Wrap(err, "decoding msgpack packet")
	}
	return p, p.Validate()
}

// Encode marshals p as msgpack.
func (MsgpackCodec) Encode(p Packet) ([]byte, error) {
	return msgpack.Marshal(p)
}

// CodecByName returns the codec called name. The empty name selects JSON.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, errors.Errorf("unknown vision codec %q", name)
	}
}
