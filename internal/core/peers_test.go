package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestPeerTableJoinExcludesSelf(t *testing.T) {
	table := NewPeerTable()
	a := NewClient("a", "", 0)
	b := NewClient("b", "", 0)
	c := NewClient("c", "", 0)

	if existing, added := table.Join(a, "r1"); len(existing) != 0 || !added {
		t.Fatalf("unexpected first join: %v %v", existing, added)
	}
	table.Join(b, "r1")
	table.Join(c, "r2")

	existing, added := table.Join(a, "r1")
	if added {
		t.Fatalf("rejoin must not add")
	}
	if len(existing) != 1 || existing[0].PeerID != "b" {
		t.Fatalf("unexpected peers: %+v", existing)
	}

	if got := table.InRoom("r1", ""); len(got) != 2 || got[0].PeerID != "a" || got[1].PeerID != "b" {
		t.Fatalf("expected join order a,b got %+v", got)
	}
	if counts := table.Counts(); counts["r1"] != 2 || counts["r2"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestPeerTableResolve(t *testing.T) {
	table := NewPeerTable()
	b := NewClient("b", "", 0)
	table.Join(b, "r1")

	if got, err := table.Resolve("r1", "b"); err != nil || got != b {
		t.Fatalf("expected b, got %v %v", got, err)
	}
	if _, err := table.Resolve("r2", "b"); !errors.Is(err, ErrRoomMismatch) {
		t.Fatalf("expected room mismatch, got %v", err)
	}
	if _, err := table.Resolve("r1", "x"); !errors.Is(err, ErrPeerNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, ok := table.Leave("b"); !ok {
		t.Fatalf("expected removal")
	}
	if _, ok := table.Leave("b"); ok {
		t.Fatalf("second leave must report nothing")
	}
	if _, err := table.Resolve("r1", "b"); !errors.Is(err, ErrPeerNotFound) {
		t.Fatalf("expected not found after leave, got %v", err)
	}
}

func TestRelayForward(t *testing.T) {
	table := NewPeerTable()
	relay := NewRelay(table, nil)
	a := NewClient("a", "", 0)
	b := NewClient("b", "", 1)
	table.Join(a, "r1")
	table.Join(b, "r1")

	payload := json.RawMessage(`{"candidate":"candidate:1 1 udp 2122260223 10.0.0.1 54321 typ host"}`)
	if err := relay.Forward(Signal{Kind: EventICECandidate, Source: a, Room: "r1", Target: "b", Payload: payload}); err != nil {
		t.Fatalf("forward: %v", err)
	}
	ev := <-b.Events
	if ev.Kind != EventICECandidate || ev.From != "a" || !bytes.Equal(ev.Payload, payload) {
		t.Fatalf("unexpected event: %+v", ev)
	}

	// full queue drops without error
	relay.Forward(Signal{Kind: EventAnswer, Source: a, Room: "r1", Target: "b"})
	if err := relay.Forward(Signal{Kind: EventAnswer, Source: a, Room: "r1", Target: "b"}); err != nil {
		t.Fatalf("drop must not fail: %v", err)
	}
	if b.Dropped() != 1 {
		t.Fatalf("expected one dropped event, got %d", b.Dropped())
	}
}

func TestRelayRejects(t *testing.T) {
	relay := NewRelay(NewPeerTable(), nil)
	a := NewClient("a", "", 0)

	if err := relay.Forward(Signal{Kind: EventChatMessage, Source: a, Target: "b"}); !errors.Is(err, ErrInvalidSignal) {
		t.Fatalf("expected invalid signal, got %v", err)
	}
	if err := relay.Forward(Signal{Kind: EventOffer, Source: a}); !errors.Is(err, ErrInvalidSignal) {
		t.Fatalf("expected invalid signal for empty target, got %v", err)
	}
	if err := relay.Forward(Signal{Kind: EventOffer, Source: a, Room: "r1", Target: "b"}); !errors.Is(err, ErrPeerNotFound) {
		t.Fatalf("expected peer not found, got %v", err)
	}
}
