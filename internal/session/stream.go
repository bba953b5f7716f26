package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/salsa-telescope/salsa/internal/monitoring"
	"github.com/salsa-telescope/salsa/internal/spectrum"
)

// StreamingSource consumes a live spectrum channel. The first inbound
// message must be a text message carrying the stream metadata JSON; every
// later binary message is one complete frame that supersedes the previous
// one. A malformed frame is dropped and the stream keeps going; a binary
// message arriving before the metadata closes the session with
// ErrProtocolViolation.
type StreamingSource struct {
	// URL is the websocket endpoint for one telescope's live spectrum.
	URL string

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	state atomic.Int32
}

// State reports the live protocol state.
func (s *StreamingSource) State() State { return State(s.state.Load()) }

// Run connects and pumps updates until the stream ends or ctx is cancelled.
func (s *StreamingSource) Run(ctx context.Context, deliver func(Update) error) error {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		s.state.Store(int32(StateFailed))
		if resp != nil {
			return fmt.Errorf("failed to connect to %s (status %d): %w", s.URL, resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect to %s: %w", s.URL, err)
	}
	defer conn.Close()

	// Closing the connection is the only way to interrupt a blocked read.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s.state.Store(int32(StateAwaitingMetadata))

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.state.Store(int32(StateDisconnected))
			return fmt.Errorf("%w: %v", ErrDisconnected, err)
		}

		if s.State() == StateAwaitingMetadata {
			if msgType != websocket.TextMessage {
				s.state.Store(int32(StateFailed))
				return ErrProtocolViolation
			}
			var md Metadata
			if err := json.Unmarshal(payload, &md); err != nil {
				s.state.Store(int32(StateFailed))
				return fmt.Errorf("failed to parse stream metadata: %w", err)
			}
			if err := deliver(Update{Metadata: &md}); err != nil {
				return err
			}
			s.state.Store(int32(StateStreaming))
			continue
		}

		switch msgType {
		case websocket.BinaryMessage:
			samples, err := spectrum.DecodeBinaryFrame(payload)
			if err != nil {
				// Terminal for this frame, not for the session: keep
				// waiting for the next message.
				monitoring.Logf("dropping malformed frame (%d bytes): %v", len(payload), err)
				continue
			}
			if err := deliver(Update{Samples: samples}); err != nil {
				return err
			}
		case websocket.TextMessage:
			monitoring.Logf("ignoring unexpected text message while streaming: %q", payload)
		}
	}
}
