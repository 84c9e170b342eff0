package vision

import (
	"net"

	"github.com/pkg/errors"
)

// Sender writes packets to a receiver. It stands in for the vision process in tests and in
// the command line tools.
type Sender struct {
	codec Codec
	conn  net.Conn
}

// Dial opens a UDP socket to address.
func Dial(address string, codec Codec) (*Sender, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	conn, err := net.Dial("udp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing vision receiver at %s", address)
	}
	return &Sender{codec: codec, conn: conn}, nil
}

// Send encodes p and writes it as one datagram.
func (s *Sender) Send(p Packet) error {
	data, err := s.codec.Encode(p)
	if err != nil {
		return err
	}
	return s.SendRaw(data)
}

// SendRaw writes data as one datagram without encoding it.
func (s *Sender) SendRaw(data []byte) error {
	if len(data) > maxPacketSize {
		return errors.Errorf("packet of %d bytes exceeds the %d byte limit", len(data), maxPacketSize)
	}
	_, err := s.conn.Write(data)
	return err
}

// Close closes the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
