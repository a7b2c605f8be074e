package core

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
)

// Signal is one WebRTC negotiation message addressed to a single peer.
type Signal struct {
	Kind    EventKind
	Source  *Client
	Room    string
	Target  string
	Payload json.RawMessage
}

// Relay forwards signaling between audio participants of the same room. It
// keeps no state of its own and never inspects payloads. Payloads stay
// semantically intact but are re-encoded as compact JSON on delivery, so
// whitespace outside string values is not preserved.
type Relay struct {
	peers *PeerTable
	log   *zerolog.Logger
}

// NewRelay builds a relay validating targets against peers.
func NewRelay(peers *PeerTable, logger *zerolog.Logger) *Relay {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Relay{peers: peers, log: logger}
}

// Forward delivers sig to its target or drops it. A full target queue drops
// the message too; there is no retry.
func (r *Relay) Forward(sig Signal) error {
	switch sig.Kind {
	case EventOffer, EventAnswer, EventICECandidate:
	default:
		return ErrInvalidSignal
	}
	if sig.Target == "" {
		r.log.Warn().Str("from", sig.Source.ID).Str("kind", signalName(sig.Kind)).Msg("signal without target")
		return ErrInvalidSignal
	}

	target, err := r.peers.Resolve(sig.Room, sig.Target)
	if err != nil {
		r.logMiss(sig, err)
		return err
	}

	ok := target.trySend(&Event{
		Kind:    sig.Kind,
		Room:    sig.Room,
		From:    sig.Source.ID,
		Payload: sig.Payload,
	})
	if !ok {
		r.log.Debug().Str("from", sig.Source.ID).Str("to", sig.Target).Str("kind", signalName(sig.Kind)).Msg("signal dropped, target queue full")
	}
	return nil
}

// logMiss grades the severity: candidates racing ahead of the peer's join are
// routine, offers and answers to nobody are not.
func (r *Relay) logMiss(sig Signal, err error) {
	ev := r.log.Warn()
	if sig.Kind == EventICECandidate && errors.Is(err, ErrPeerNotFound) {
		ev = r.log.Debug()
	}
	ev.Err(err).
		Str("from", sig.Source.ID).
		Str("to", sig.Target).
		Str("room", sig.Room).
		Str("kind", signalName(sig.Kind)).
		Msg("signal not relayed")
}

func signalName(k EventKind) string {
	switch k {
	case EventOffer:
		return "offer"
	case EventAnswer:
		return "answer"
	case EventICECandidate:
		return "ice-candidate"
	default:
		return "unknown"
	}
}
