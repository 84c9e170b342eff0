package vision

import (
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/frcrobotics/autonomy/sensor"
)

type reading struct {
	angle float64
	id    int64
	at    time.Time
}

// BearingStore keeps the most recent bearing per object. It is written by the receiver
// goroutine and read by the scheduler goroutine.
type BearingStore struct {
	clk clock.Clock

	mu           sync.RWMutex
	bearings     map[string]reading
	lastID       int64
	lastPacketAt time.Time
	haveID       bool
}

var _ sensor.BearingSource = (*BearingStore)(nil)

// NewBearingStore returns an empty store that timestamps readings with clk.
func NewBearingStore(clk clock.Clock) *BearingStore {
	if clk == nil {
		clk = clock.New()
	}
	return &BearingStore{clk: clk, bearings: map[string]reading{}}
}

// Record stores the bearing in p if it came from the vision sender, replacing any older
// reading for the same object regardless of packet id. It reports whether a bearing was
// stored.
func (s *BearingStore) Record(p Packet) bool {
	now := s.clk.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPacketAt = now
	if p.Sender != SenderVision {
		return false
	}
	s.bearings[p.Object] = reading{angle: p.Angle, id: p.ID, at: now}
	s.lastID = p.ID
	s.haveID = true
	return true
}

// LatestBearing returns the bearing for key if it was recorded less than maxStaleness ago.
func (s *BearingStore) LatestBearing(key string, maxStaleness time.Duration) (float64, bool) {
	now := s.clk.Now()
	s.mu.RLock()
	r, ok := s.bearings[key]
	s.mu.RUnlock()

	if !ok || now.Sub(r.at) >= maxStaleness {
		return 0, false
	}
	return r.angle, true
}

// Bearing is one object's reading in a Snapshot.
type Bearing struct {
	Object string        `json:"object"`
	Angle  float64       `json:"angle"`
	ID     int64         `json:"id"`
	Age    time.Duration `json:"age"`
}

// Snapshot is a copy of the store's state for diagnostics.
type Snapshot struct {
	// LastID is the id of the last vision packet, or -1 if none arrived.
	LastID int64 `json:"last_id"`
	// LastPacketAge is the time since any packet arrived, or zero if none did.
	LastPacketAge time.Duration `json:"last_packet_age"`
	Bearings      []Bearing     `json:"bearings"`
}

// Snapshot copies the store, sorting bearings by object.
func (s *BearingStore) Snapshot() Snapshot {
	now := s.clk.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{LastID: -1}
	if s.haveID {
		snap.LastID = s.lastID
	}
	if !s.lastPacketAt.IsZero() {
		snap.LastPacketAge = now.Sub(s.lastPacketAt)
	}
	for object, r := range s.bearings {
		snap.Bearings = append(snap.Bearings, Bearing{Object: object, Angle: r.angle, ID: r.id, Age: now.Sub(r.at)})
	}
	sort.Slice(snap.Bearings, func(i, j int) bool { return snap.Bearings[i].Object < snap.Bearings[j].Object })
	return snap
}
