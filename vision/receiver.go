package vision

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"
	"golang.org/x/time/rate"

	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/utils"
)

const (
	maxPacketSize = 1024
	readTimeout   = 100 * time.Millisecond
	retryWait     = time.Second
)

// Stats counts the datagrams a Receiver has handled.
type Stats struct {
	Received int64 `json:"received"`
	Dropped  int64 `json:"dropped"`
}

// Receiver listens for vision packets on a UDP socket and records them in a BearingStore.
// Malformed datagrams are dropped and counted; they never stop the receiver.
type Receiver struct {
	address string
	codec   Codec
	store   *BearingStore
	logger  logging.Logger

	connMu sync.Mutex
	conn   net.PacketConn

	lastErrorMu sync.Mutex
	lastError   error

	received atomic.Int64
	dropped  atomic.Int64

	badPacketLog rate.Sometimes
	workers      *utils.StoppableWorkers
}

// NewReceiver binds address and starts receiving in the background. The socket is bound
// before returning so that an unusable address is reported to the caller.
func NewReceiver(address string, codec Codec, store *BearingStore, logger logging.Logger) (*Receiver, error) {
	if codec == nil {
		codec = JSONCodec{}
	}
	if store == nil {
		return nil, pkgerrors.New("vision receiver needs a bearing store")
	}
	conn, err := net.ListenPacket("udp", address)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "listening for vision packets on %s", address)
	}
	r := &Receiver{
		address:      address,
		codec:        codec,
		store:        store,
		logger:       logger,
		conn:         conn,
		badPacketLog: rate.Sometimes{Interval: time.Second},
	}
	logger.Infof("receiving %s vision packets on %s", codec.Name(), conn.LocalAddr())
	r.workers = utils.NewStoppableWorkers(r.run)
	return r, nil
}

// Addr is the bound local address.
func (r *Receiver) Addr() net.Addr {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Store is the store packets are recorded in.
func (r *Receiver) Store() *BearingStore {
	return r.store
}

// Stats returns the datagram counters.
func (r *Receiver) Stats() Stats {
	return Stats{Received: r.received.Load(), Dropped: r.dropped.Load()}
}

// LastError returns the most recent socket or decode error, if any.
func (r *Receiver) LastError() error {
	r.lastErrorMu.Lock()
	defer r.lastErrorMu.Unlock()
	return r.lastError
}

func (r *Receiver) setLastError(err error) {
	r.lastErrorMu.Lock()
	r.lastError = err
	r.lastErrorMu.Unlock()
}

func (r *Receiver) currentConn() net.PacketConn {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	return r.conn
}

// reconnect replaces a broken socket. It is only called from the receive loop.
func (r *Receiver) reconnect(ctx context.Context) {
	r.connMu.Lock()
	if r.conn != nil {
		goutils.UncheckedError(r.conn.Close())
		r.conn = nil
	}
	r.connMu.Unlock()

	if !goutils.SelectContextOrWait(ctx, retryWait) {
		return
	}
	conn, err := net.ListenPacket("udp", r.address)
	if err != nil {
		r.setLastError(err)
		r.logger.Warnw("cannot rebind vision socket", "address", r.address, "error", err)
		return
	}
	r.connMu.Lock()
	r.conn = conn
	r.connMu.Unlock()
}

func (r *Receiver) run(ctx context.Context) {
	buf := make([]byte, maxPacketSize)
	for ctx.Err() == nil {
		conn := r.currentConn()
		if conn == nil {
			r.reconnect(ctx)
			continue
		}
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			r.setLastError(err)
			r.reconnect(ctx)
			continue
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			r.setLastError(err)
			r.logger.Errorw("vision socket read failed, reconnecting", "error", err)
			r.reconnect(ctx)
			continue
		}
		r.handle(buf[:n])
	}
}

// handle decodes one datagram and records it.
func (r *Receiver) handle(data []byte) {
	p, err := r.codec.Decode(data)
	if err != nil {
		r.dropped.Inc()
		r.setLastError(err)
		r.badPacketLog.Do(func() {
			r.logger.Warnw("dropping vision packet", "error", err, "dropped", r.dropped.Load())
		})
		return
	}
	r.received.Inc()
	r.store.Record(p)
}

// Close stops the receive loop and releases the socket.
func (r *Receiver) Close() error {
	r.workers.Stop()
	r.connMu.Lock()
	defer r.connMu.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}
