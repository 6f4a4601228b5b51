package router

import "github.com/skywire/mavrelay/internal/wire"

// Query is a local subscriber's delivery filter (§3). A zero value in any
// field means wildcard; MessageType nil also means wildcard.
type Query struct {
	MessageType     *uint32
	SourceSystem    uint8
	SourceComponent uint8
	TargetSystem    uint8
	TargetComponent uint8
	AsFrame         bool
}

// Matches reports whether fr satisfies q. Every non-wildcard field of q must
// equal the corresponding field of fr. Target fields compare directly
// against fr's target fields, which are already zero for broadcast frames,
// so a broadcast frame only matches queries that also leave targets
// wildcarded (§4.4).
func (q Query) Matches(fr *wire.Frame) bool {
	if q.MessageType != nil && *q.MessageType != fr.MessageID {
		return false
	}
	if q.SourceSystem != 0 && q.SourceSystem != fr.SourceSystem {
		return false
	}
	if q.SourceComponent != 0 && q.SourceComponent != fr.SourceComponent {
		return false
	}
	if q.TargetSystem != 0 && q.TargetSystem != fr.TargetSystem {
		return false
	}
	if q.TargetComponent != 0 && q.TargetComponent != fr.TargetComponent {
		return false
	}
	return true
}

// Delivery is what a matching subscription hands to its consumer: the full
// frame, and the decoded message when the query didn't ask for frames only
// (AsFrame) and one was available (it is nil for unknown-message frames,
// which per §7 never reach subscribers in the first place).
type Delivery struct {
	Frame   *wire.Frame
	Message any
}

// Consumer is a local subscriber's delivery handle. Deliver must never
// block; a consumer backed by a channel should use a non-blocking send or a
// buffered channel, since the router hands off and moves on regardless.
type Consumer interface {
	ID() string
	Deliver(d Delivery)
}

// Subscription binds one consumer to one query.
type Subscription struct {
	Query    Query
	Consumer Consumer
}
