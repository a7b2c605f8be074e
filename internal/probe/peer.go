package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/proto"
)

// peer is one side of the negotiation. Remote candidates that arrive before
// the remote description are held until it is set.
type peer struct {
	ctx    context.Context
	s      *session
	remote string
	pc     *pion.PeerConnection

	mu        sync.Mutex
	remoteSet bool
	pending   []pion.ICECandidateInit
	count     int
}

func newPeer(ctx context.Context, api *pion.API, cfg pion.Configuration, s *session, remote string) (*peer, error) {
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: create peer connection: %w", s.name, err)
	}
	p := &peer{ctx: ctx, s: s, remote: remote, pc: pc}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		if err := s.send(ctx, proto.InboundTypeICECandidate, "", proto.SignalData{Target: remote, Candidate: raw}); err != nil {
			s.log.Debug().Err(err).Msg("send candidate")
		}
	})
	pc.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		s.log.Debug().Str("state", state.String()).Msg("ice state")
	})
	return p, nil
}

func (p *peer) offer(ctx context.Context) error {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	return p.sendDescription(ctx, proto.InboundTypeOffer, offer)
}

// serve handles signaling frames for this peer until ctx ends or the
// connection fails.
func (p *peer) serve(ctx context.Context) error {
	for {
		f, err := p.s.read(ctx)
		if err != nil {
			return err
		}
		if f.Type != proto.OutboundTypeEvent {
			continue
		}
		switch f.Event {
		case proto.EventOffer:
			if err := p.handleOffer(ctx, f.Data); err != nil {
				return err
			}
		case proto.EventAnswer:
			desc, err := p.description(f.Data)
			if err != nil {
				return err
			}
			if desc == nil {
				continue
			}
			if err := p.setRemote(*desc); err != nil {
				return err
			}
		case proto.EventICECandidate:
			if err := p.handleCandidate(f.Data); err != nil {
				return err
			}
		}
	}
}

func (p *peer) handleOffer(ctx context.Context, data json.RawMessage) error {
	desc, err := p.description(data)
	if err != nil || desc == nil {
		return err
	}
	if err := p.setRemote(*desc); err != nil {
		return err
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	return p.sendDescription(ctx, proto.InboundTypeAnswer, answer)
}

// description decodes a relayed offer or answer; frames from anyone other
// than the expected remote yield nil.
func (p *peer) description(data json.RawMessage) (*pion.SessionDescription, error) {
	var msg proto.DescriptionData
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	if msg.PeerID != p.remote {
		return nil, nil
	}
	var desc pion.SessionDescription
	if err := json.Unmarshal(msg.Description, &desc); err != nil {
		return nil, fmt.Errorf("decode session description: %w", err)
	}
	return &desc, nil
}

func (p *peer) setRemote(desc pion.SessionDescription) error {
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}

	p.mu.Lock()
	p.remoteSet = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, c := range pending {
		if err := p.pc.AddICECandidate(c); err != nil {
			return fmt.Errorf("add candidate: %w", err)
		}
	}
	return nil
}

func (p *peer) handleCandidate(data json.RawMessage) error {
	var msg proto.CandidateData
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode candidate: %w", err)
	}
	if msg.PeerID != p.remote {
		return nil
	}
	var c pion.ICECandidateInit
	if err := json.Unmarshal(msg.Candidate, &c); err != nil {
		return fmt.Errorf("decode candidate init: %w", err)
	}

	p.mu.Lock()
	p.count++
	if !p.remoteSet {
		p.pending = append(p.pending, c)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if err := p.pc.AddICECandidate(c); err != nil {
		return fmt.Errorf("add candidate: %w", err)
	}
	return nil
}

func (p *peer) sendDescription(ctx context.Context, typ string, desc pion.SessionDescription) error {
	raw, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	return p.s.send(ctx, typ, "", proto.SignalData{Target: p.remote, Description: raw})
}

func (p *peer) received() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func (p *peer) close() {
	if err := p.pc.Close(); err != nil {
		p.s.log.Debug().Err(err).Msg("close peer connection")
	}
}
