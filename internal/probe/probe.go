// Package probe checks a running server end to end: two connections join a
// room, enter audio and negotiate a WebRTC data channel using only the
// server's signaling relay.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	pion "github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/proto"
)

const (
	channelLabel   = "probe"
	defaultTimeout = 20 * time.Second
)

var (
	ErrTimeout  = errors.New("probe timed out")
	ErrRejected = errors.New("server rejected probe request")
)

// Options configure a probe run.
type Options struct {
	// URL is the websocket endpoint, e.g. ws://localhost:3000/ws.
	URL string
	// Room defaults to a random probe-<uuid> room.
	Room       string
	Timeout    time.Duration
	ICEServers []pion.ICEServer
	// Loopback lets host candidates on 127.0.0.1 through, for probing a local server.
	Loopback bool
	Logger   *zerolog.Logger
}

// Report summarizes a successful run.
type Report struct {
	Room       string
	Offerer    string
	Answerer   string
	Candidates int
	Elapsed    time.Duration
}

// Run performs one probe. The newcomer (second connection) offers to the peer
// it learns about from audio-peers, as browsers do.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Room == "" {
		opts.Room = "probe-" + uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	started := time.Now()

	api := newAPI(opts.Loopback)
	rtcCfg := pion.Configuration{ICEServers: opts.ICEServers}

	answerer, err := dialSession(ctx, opts.URL, "probe-answerer", logger)
	if err != nil {
		return nil, err
	}
	defer answerer.close()
	offerer, err := dialSession(ctx, opts.URL, "probe-offerer", logger)
	if err != nil {
		return nil, err
	}
	defer offerer.close()

	for _, s := range []*session{answerer, offerer} {
		if err := s.join(ctx, opts.Room); err != nil {
			return nil, err
		}
	}

	if err := answerer.send(ctx, proto.InboundTypeJoinAudio, "", nil); err != nil {
		return nil, err
	}
	if _, err := answerer.await(ctx, eventIs(proto.EventAudioPeers)); err != nil {
		return nil, err
	}
	if err := offerer.send(ctx, proto.InboundTypeJoinAudio, "", nil); err != nil {
		return nil, err
	}
	peersFrame, err := offerer.await(ctx, eventIs(proto.EventAudioPeers))
	if err != nil {
		return nil, err
	}
	var peers []proto.PeerData
	if err := json.Unmarshal(peersFrame.Data, &peers); err != nil {
		return nil, fmt.Errorf("decode audio-peers: %w", err)
	}
	if len(peers) != 1 || peers[0].PeerID != answerer.id {
		return nil, fmt.Errorf("unexpected audio peers %s", peersFrame.Data)
	}

	opened := make(chan struct{})
	var openOnce sync.Once

	answerPeer, err := newPeer(ctx, api, rtcCfg, answerer, offerer.id)
	if err != nil {
		return nil, err
	}
	defer answerPeer.close()
	answerPeer.pc.OnDataChannel(func(dc *pion.DataChannel) {
		dc.OnMessage(func(msg pion.DataChannelMessage) {
			logger.Debug().Str("payload", string(msg.Data)).Msg("probe message received")
			openOnce.Do(func() { close(opened) })
		})
	})

	offerPeer, err := newPeer(ctx, api, rtcCfg, offerer, answerer.id)
	if err != nil {
		return nil, err
	}
	defer offerPeer.close()
	dc, err := offerPeer.pc.CreateDataChannel(channelLabel, nil)
	if err != nil {
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	dc.OnOpen(func() {
		if err := dc.SendText("ping"); err != nil {
			logger.Warn().Err(err).Msg("probe send failed")
		}
	})

	errCh := make(chan error, 2)
	go func() { errCh <- answerPeer.serve(ctx) }()
	go func() { errCh <- offerPeer.serve(ctx) }()

	if err := offerPeer.offer(ctx); err != nil {
		return nil, err
	}

	select {
	case <-opened:
	case err := <-errCh:
		if err == nil || ctx.Err() != nil {
			return nil, ErrTimeout
		}
		return nil, err
	case <-ctx.Done():
		return nil, ErrTimeout
	}

	return &Report{
		Room:       opts.Room,
		Offerer:    offerer.id,
		Answerer:   answerer.id,
		Candidates: answerPeer.received() + offerPeer.received(),
		Elapsed:    time.Since(started),
	}, nil
}

func newAPI(loopback bool) *pion.API {
	var se pion.SettingEngine
	if loopback {
		se.SetIncludeLoopbackCandidate(true)
	}
	return pion.NewAPI(pion.WithSettingEngine(se))
}

// WebSocketURL turns an http(s) base URL into the websocket endpoint.
func WebSocketURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	if !strings.HasSuffix(base, "/ws") {
		base += "/ws"
	}
	return base
}
