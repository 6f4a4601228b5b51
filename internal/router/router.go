// Package router implements the MAVLink routing state machine (§4.4): route
// learning, broadcast/targeted dispatch, subscription fan-out, and the local
// send path. It is modeled as a single-goroutine actor draining an inbox,
// owning routing state exclusively rather than just a client set.
package router

import (
	"fmt"

	"github.com/skywire/mavrelay/internal/logging"
	"github.com/skywire/mavrelay/internal/metrics"
	"github.com/skywire/mavrelay/internal/subscache"
	"github.com/skywire/mavrelay/internal/wire"
)

type routeKey struct {
	System    uint8
	Component uint8
}

// Router owns the route table, connection set, and subscription list. All
// of that state is touched only from the actor goroutine started by New;
// every exported method communicates with it through inbox.
type Router struct {
	dispatch       wire.Dispatch
	localSystem    uint8
	localComponent uint8
	nextSequence   uint8
	connections    map[string]Connection
	routes         map[routeKey]string
	subscriptions  map[string]Subscription // keyed by Consumer.ID()
	inbox          chan any
	done           chan struct{}
}

// New creates a Router for dispatch (the dialect's message table) and the
// local system/component identity used on the send path. It restores any
// subscriptions left by a prior Router in this process (§4.5) and starts
// the actor goroutine.
func New(dispatch wire.Dispatch, localSystem, localComponent uint8) (*Router, error) {
	if dispatch == nil {
		return nil, ErrNoDialectSet
	}
	r := &Router{
		dispatch:       dispatch,
		localSystem:    localSystem,
		localComponent: localComponent,
		connections:    make(map[string]Connection),
		routes:         make(map[routeKey]string),
		subscriptions:  make(map[string]Subscription),
		inbox:          make(chan any, 256),
		done:           make(chan struct{}),
	}
	if snap, ok := subscache.Load().([]Subscription); ok {
		for _, sub := range snap {
			r.subscriptions[sub.Consumer.ID()] = sub
		}
	}
	go r.run()
	return r, nil
}

func (r *Router) run() {
	defer close(r.done)
	for event := range r.inbox {
		switch e := event.(type) {
		case frameInEvent:
			r.handleFrameIn(e)
		case connUpEvent:
			r.connections[e.Conn.Key] = e.Conn
			metrics.SetActiveConnections(len(r.connections))
		case connDownEvent:
			delete(r.connections, e.Key)
			metrics.SetActiveConnections(len(r.connections))
		case sendEvent:
			r.handleSend(e)
		case subscribeEvent:
			r.subscriptions[e.Sub.Consumer.ID()] = e.Sub
			r.persistSubscriptions()
			metrics.SetActiveSubscriptions(len(r.subscriptions))
			e.Reply <- nil
		case unsubscribeEvent:
			delete(r.subscriptions, e.ConsumerID)
			r.persistSubscriptions()
			metrics.SetActiveSubscriptions(len(r.subscriptions))
		case consumerDiedEvent:
			delete(r.subscriptions, e.ConsumerID)
			r.persistSubscriptions()
			metrics.SetActiveSubscriptions(len(r.subscriptions))
		}
	}
}

func (r *Router) persistSubscriptions() {
	snap := make([]Subscription, 0, len(r.subscriptions))
	for _, s := range r.subscriptions {
		snap = append(snap, s)
	}
	subscache.Store(snap)
}

// AddConnection registers a connection an adapter has just opened.
func (r *Router) AddConnection(conn Connection) {
	r.inbox <- connUpEvent{Conn: conn}
}

// RemoveConnection unregisters a connection an adapter has just closed.
// Reconnection is entirely the adapter's concern (§4.3/§9); it re-adds
// itself via AddConnection once it has a new connection.
func (r *Router) RemoveConnection(key string) {
	r.inbox <- connDownEvent{Key: key}
}

// HandleFrame is how an adapter delivers a structurally-decoded inbound
// frame (or a known frame-level error) into the router's dispatch path.
func (r *Router) HandleFrame(connKey string, fr *wire.Frame, msg any, err error) {
	r.inbox <- frameInEvent{ConnKey: connKey, Frame: fr, Msg: msg, Err: err}
}

// Send packs msg as messageID using codec, assigns source/sequence (§4.4),
// and dispatches it exactly as if it had arrived from "local".
func (r *Router) Send(messageID uint32, codec wire.MessageCodec, msg any, version wire.Version) error {
	reply := make(chan error, 1)
	r.inbox <- sendEvent{MessageID: messageID, Codec: codec, Msg: msg, Version: version, Reply: reply}
	return <-reply
}

func (r *Router) handleSend(e sendEvent) {
	seq := r.nextSequence
	r.nextSequence = (r.nextSequence + 1) % 255

	hdr := wire.Header{
		Version:         e.Version,
		Sequence:        seq,
		SourceSystem:    r.localSystem,
		SourceComponent: r.localComponent,
		MessageID:       e.MessageID,
	}
	fr, err := wire.Pack(hdr, e.Codec, e.Msg)
	if err != nil {
		e.Reply <- fmt.Errorf("router: send: %w", err)
		return
	}
	r.dispatchFrame("", fr, e.Msg, nil)
	e.Reply <- nil
}

// Subscribe registers c against q. Replacing an identical (consumer,query)
// pair is a no-op dedup per §3; keying subscriptions by consumer id already
// gives that for free since a second Subscribe from the same consumer just
// overwrites its entry.
func (r *Router) Subscribe(q Query, c Consumer) error {
	reply := make(chan error, 1)
	r.inbox <- subscribeEvent{Sub: Subscription{Query: q, Consumer: c}, Reply: reply}
	return <-reply
}

// Unsubscribe removes every registration for consumerID.
func (r *Router) Unsubscribe(consumerID string) {
	r.inbox <- unsubscribeEvent{ConsumerID: consumerID}
}

// ConsumerDied is called by whatever owns a consumer's lifetime once it
// detects death (closed channel, exited goroutine); it behaves exactly like
// Unsubscribe but is named separately so call sites document intent.
func (r *Router) ConsumerDied(consumerID string) {
	r.inbox <- consumerDiedEvent{ConsumerID: consumerID}
}

// Close stops the actor and clears in-memory routing state. Subscriptions
// are left in the subscription cache per §4.5.
func (r *Router) Close() {
	close(r.inbox)
	<-r.done
	clear(r.routes)
	clear(r.connections)
	metrics.SetRouteTableSize(0)
	metrics.SetActiveConnections(0)
}

func (r *Router) handleFrameIn(e frameInEvent) {
	if e.Frame == nil {
		return
	}
	r.routes[routeKey{e.Frame.SourceSystem, e.Frame.SourceComponent}] = e.ConnKey
	metrics.SetRouteTableSize(len(r.routes))
	r.dispatchFrame(e.ConnKey, e.Frame, e.Msg, e.Err)
}

func (r *Router) dispatchFrame(sourceConnKey string, fr *wire.Frame, msg any, frameErr error) {
	if fr.Target == wire.TargetBroadcast {
		for key, conn := range r.connections {
			if key == sourceConnKey {
				continue
			}
			conn.Send(fr)
		}
	} else {
		for _, key := range r.routesFor(fr.TargetSystem, fr.TargetComponent) {
			if key == sourceConnKey {
				continue
			}
			if conn, ok := r.connections[key]; ok {
				conn.Send(fr)
			}
		}
	}

	if frameErr == wire.ErrUnknownMessage {
		logging.L().Debug("router_unknown_message_forwarded", "message_id", fr.MessageID)
		return
	}

	for _, sub := range r.subscriptions {
		if !sub.Query.Matches(fr) {
			continue
		}
		d := Delivery{Frame: fr}
		if sub.Query.AsFrame {
			d.Message = nil
		} else {
			d.Message = msg
		}
		sub.Consumer.Deliver(d)
	}
}

// routesFor resolves the route table against a possibly-wildcarded target,
// returning the deduplicated set of connection keys to forward to (§4.4
// tie-breaking rule).
func (r *Router) routesFor(targetSystem, targetComponent uint8) []string {
	seen := make(map[string]struct{})
	var keys []string
	for k, connKey := range r.routes {
		if targetSystem != 0 && k.System != targetSystem {
			continue
		}
		if targetComponent != 0 && k.Component != targetComponent {
			continue
		}
		if _, ok := seen[connKey]; ok {
			continue
		}
		seen[connKey] = struct{}{}
		keys = append(keys, connKey)
	}
	return keys
}
