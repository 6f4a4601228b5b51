package router

import (
	"sync"
	"testing"
	"time"

	"github.com/skywire/mavrelay/internal/subscache"
	"github.com/skywire/mavrelay/internal/wire"
)

// recordingConn captures every frame handed to Send.
type recordingConn struct {
	mu     sync.Mutex
	key    string
	frames []*wire.Frame
}

func newRecordingConn(key string) *recordingConn {
	return &recordingConn{key: key}
}

func (c *recordingConn) connection() Connection {
	return Connection{Key: c.key, Kind: "test", Send: func(fr *wire.Frame) {
		c.mu.Lock()
		c.frames = append(c.frames, fr)
		c.mu.Unlock()
	}}
}

func (c *recordingConn) received() []*wire.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*wire.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// testConsumer is a Consumer backed by a buffered channel plus a closed flag.
type testConsumer struct {
	id string
	ch chan Delivery
}

func newTestConsumer(id string) *testConsumer {
	return &testConsumer{id: id, ch: make(chan Delivery, 8)}
}

func (c *testConsumer) ID() string { return c.id }
func (c *testConsumer) Deliver(d Delivery) {
	select {
	case c.ch <- d:
	default:
	}
}

func mustRouter(t *testing.T) *Router {
	t.Helper()
	subscache.Clear()
	r, err := New(fakeDialect{}, 255, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

type fakeDialect struct{}

func (fakeDialect) Lookup(id uint32) (wire.MessageCodec, bool) { return wire.MessageCodec{}, false }

func broadcastFrame(t *testing.T, sys, comp uint8) *wire.Frame {
	t.Helper()
	codec := wire.MessageCodec{
		Name:     "TEST",
		CRCExtra: 1,
		WireSize: 1,
		Pack:     func(m any) ([]byte, error) { return []byte{0}, nil },
		Unpack:   func(p []byte) (any, error) { return struct{}{}, nil },
	}
	hdr := wire.Header{Version: wire.V2, SourceSystem: sys, SourceComponent: comp, MessageID: 1}
	fr, err := wire.Pack(hdr, codec, struct{}{})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return fr
}

type targetedMsg struct{ sys, comp uint8 }

func (m targetedMsg) Targets() (uint8, uint8) { return m.sys, m.comp }

func targetedFrame(t *testing.T, sourceSys, sourceComp, targetSys, targetComp uint8) *wire.Frame {
	t.Helper()
	codec := wire.MessageCodec{
		Name:     "COMMAND",
		CRCExtra: 2,
		WireSize: 2,
		Targeted: true,
		Pack:     func(m any) ([]byte, error) { tm := m.(targetedMsg); return []byte{tm.sys, tm.comp}, nil },
		Unpack:   func(p []byte) (any, error) { return targetedMsg{sys: p[0], comp: p[1]}, nil },
	}
	hdr := wire.Header{Version: wire.V2, SourceSystem: sourceSys, SourceComponent: sourceComp, MessageID: 2}
	fr, err := wire.Pack(hdr, codec, targetedMsg{sys: targetSys, comp: targetComp})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return fr
}

func drain(t *testing.T, r *Router) {
	t.Helper()
	// HandleFrame/Send are posted asynchronously; give the actor a moment
	// and then push a synchronous round-trip through Subscribe/Unsubscribe
	// (which reply) to guarantee everything queued earlier has drained.
	done := make(chan struct{})
	go func() {
		_ = r.Subscribe(Query{}, newTestConsumer("drain-probe"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("router actor appears stuck")
	}
	r.Unsubscribe("drain-probe")
}

// TestTargetedRouting_ForwardsOnlyToLearnedRoute is scenario 4: a targeted
// frame is forwarded only to the connection last observed as that target's
// source, never back to the sender and never to unrelated connections.
func TestTargetedRouting_ForwardsOnlyToLearnedRoute(t *testing.T) {
	r := mustRouter(t)
	connA := newRecordingConn("udp:A")
	connB := newRecordingConn("tcp:B")
	connListener := newRecordingConn("udpin:listener")
	r.AddConnection(connA.connection())
	r.AddConnection(connB.connection())
	r.AddConnection(connListener.connection())
	drain(t, r)

	// A's traffic (source 1,1, targeted at the not-yet-routed 2,1) arrives
	// via connA, learning the route.
	r.HandleFrame(connA.key, targetedFrame(t, 1, 1, 2, 1), targetedMsg{sys: 2, comp: 1}, nil)
	drain(t, r)

	// B sends a frame targeted at (1,1).
	fr := targetedFrame(t, 9, 1, 1, 1)
	r.HandleFrame(connB.key, fr, targetedMsg{sys: 1, comp: 1}, nil)
	drain(t, r)

	if got := len(connA.received()); got != 1 {
		t.Fatalf("expected 1 frame forwarded to A, got %d", got)
	}
	if got := len(connB.received()); got != 0 {
		t.Fatalf("expected targeted frame not echoed back to sender B, got %d", got)
	}
	if got := len(connListener.received()); got != 0 {
		t.Fatalf("expected listener connection untouched, got %d", got)
	}
}

// TestBroadcast_ExcludesSourceAndMatchesSubscriber is scenario 5.
func TestBroadcast_ExcludesSourceAndMatchesSubscriber(t *testing.T) {
	r := mustRouter(t)
	connS := newRecordingConn("serial:S")
	connTCP := newRecordingConn("tcpout:T")
	connUDP := newRecordingConn("udpout:U")
	r.AddConnection(connS.connection())
	r.AddConnection(connTCP.connection())
	r.AddConnection(connUDP.connection())

	sourceSys := uint8(3)
	sub := newTestConsumer("watcher")
	if err := r.Subscribe(Query{SourceSystem: sourceSys}, sub); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	fr := broadcastFrame(t, sourceSys, 1)
	r.HandleFrame(connS.key, fr, struct{}{}, nil)
	drain(t, r)

	if got := len(connS.received()); got != 0 {
		t.Fatalf("broadcast must not be forwarded back to its source, got %d", got)
	}
	if got := len(connTCP.received()); got != 1 {
		t.Fatalf("expected TCP connection to receive broadcast, got %d", got)
	}
	if got := len(connUDP.received()); got != 1 {
		t.Fatalf("expected UDP connection to receive broadcast, got %d", got)
	}
	select {
	case d := <-sub.ch:
		if d.Frame.SourceSystem != sourceSys {
			t.Fatalf("delivered frame has wrong source: %+v", d.Frame)
		}
	default:
		t.Fatal("expected subscriber to receive the broadcast frame")
	}
}

// TestConsumerDied_StopsDeliveryAndClearsCache is scenario 6.
func TestConsumerDied_StopsDeliveryAndClearsCache(t *testing.T) {
	r := mustRouter(t)
	sub := newTestConsumer("doomed")
	heartbeatID := uint32(0)
	if err := r.Subscribe(Query{MessageType: &heartbeatID}, sub); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	drain(t, r)

	r.ConsumerDied("doomed")
	drain(t, r)

	fr := broadcastFrame(t, 1, 1)
	fr.MessageID = 0
	r.HandleFrame("some-conn", fr, struct{}{}, nil)
	drain(t, r)

	select {
	case d := <-sub.ch:
		t.Fatalf("expected no delivery after consumer death, got %+v", d)
	default:
	}

	if snap, ok := subscache.Load().([]Subscription); ok {
		for _, s := range snap {
			if s.Consumer.ID() == "doomed" {
				t.Fatalf("expected dead consumer removed from subscription cache")
			}
		}
	}
}

func TestQuery_MatchesIsMonotoneInWildcards(t *testing.T) {
	fr := broadcastFrame(t, 5, 2)
	strict := Query{SourceSystem: 5, SourceComponent: 2}
	if !strict.Matches(fr) {
		t.Fatalf("expected strict query to match its own frame")
	}
	loosened := strict
	loosened.SourceComponent = 0
	if !loosened.Matches(fr) {
		t.Fatalf("loosening a field must never turn a match into a non-match")
	}

	mismatch := Query{SourceSystem: 9}
	if mismatch.Matches(fr) {
		t.Fatalf("expected mismatched source_system to fail")
	}
	mismatchLoosened := Query{}
	if !mismatchLoosened.Matches(fr) {
		t.Fatalf("fully wildcarded query must match any frame")
	}
}
