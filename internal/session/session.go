// Package session manages the acquisition side of a displayed spectrum
// chart: a live websocket stream or a one-shot historical fetch. Each chart
// owns at most one active session; replacing a chart closes the old session
// before the new one starts, so two sessions never race to update the same
// chart state.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/salsa-telescope/salsa/internal/monitoring"
	"github.com/salsa-telescope/salsa/internal/spectrum"
)

var (
	// ErrProtocolViolation is returned when a live stream sends a binary
	// frame before the metadata message. The session is closed rather than
	// guessing at the payload.
	ErrProtocolViolation = errors.New("binary frame received before stream metadata")

	// ErrDisconnected is returned when a live channel drops. There is no
	// automatic reconnect; callers decide whether to open a fresh session.
	ErrDisconnected = errors.New("stream disconnected")
)

// Metadata is the first logical message of a live session. In historical
// mode the same field is taken from the observation record instead.
type Metadata struct {
	VLSRCorrectionMps *float64 `json:"vlsr_correction_mps"`
}

// State describes where a session is in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateAwaitingMetadata
	StateStreaming
	StateFetching
	StateReady
	StateFailed
	StateClosed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingMetadata:
		return "awaiting-metadata"
	case StateStreaming:
		return "streaming"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Update is one ordered event from a sample source: metadata, a complete
// frame, or both (historical mode delivers both at once).
type Update struct {
	Metadata *Metadata
	Samples  []spectrum.Sample
}

// SampleSource produces ordered (metadata, frame) updates for one chart.
// Run blocks until the source is exhausted, fails, or ctx is cancelled, and
// calls deliver for every update strictly in arrival order on a single
// goroutine. The two variants are StreamingSource and FetchedSource.
type SampleSource interface {
	Run(ctx context.Context, deliver func(Update) error) error
	State() State
}

// Session binds one sample source to one chart. All chart mutations happen
// on the session goroutine, in event arrival order, so the chart state is
// never observed mid-update.
type Session struct {
	ID     uuid.UUID
	source SampleSource

	cancel context.CancelFunc
	done   chan struct{}

	state atomic.Int32
	errMu sync.Mutex
	err   error
}

// Open starts a session driving the chart from the source. onUpdate, if not
// nil, is invoked on the session goroutine after each applied update (for
// example to re-render). The caller must Close the session when the chart is
// unmounted or replaced.
func Open(ctx context.Context, source SampleSource, chart *spectrum.ChartState, onUpdate func()) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:     uuid.New(),
		source: source,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.state.Store(int32(StateIdle))

	apply := func(u Update) error {
		if u.Metadata != nil {
			chart.SetCorrection(u.Metadata.VLSRCorrectionMps)
		}
		if u.Samples != nil {
			chart.SetFrame(u.Samples)
		}
		if onUpdate != nil {
			onUpdate()
		}
		return nil
	}

	go func() {
		defer close(s.done)
		err := source.Run(ctx, apply)
		switch {
		case ctx.Err() != nil:
			s.state.Store(int32(StateClosed))
		case err == nil:
			s.state.Store(int32(StateReady))
		case errors.Is(err, ErrDisconnected):
			s.setErr(err)
			s.state.Store(int32(StateDisconnected))
			monitoring.Logf("session %s disconnected: %v", s.ID, err)
		default:
			s.setErr(err)
			s.state.Store(int32(StateFailed))
			monitoring.Logf("session %s failed: %v", s.ID, err)
		}
	}()
	return s
}

func (s *Session) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.err = err
}

// Err returns the terminal error, if any, once the session has finished.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// State reports the session lifecycle state. While running it defers to the
// source's own protocol state.
func (s *Session) State() State {
	select {
	case <-s.done:
		return State(s.state.Load())
	default:
		return s.source.State()
	}
}

// Done is closed when the session goroutine has finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close cancels the session and waits for its goroutine to stop. No message
// from the old connection is processed after Close returns, and no partial
// frame survives the cancellation.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

// Mount owns the single active session of one displayed chart. Attaching a
// new source closes the previous session first.
type Mount struct {
	mu      sync.Mutex
	current *Session
}

// Attach replaces the mounted session with a new one for the given source.
func (m *Mount) Attach(ctx context.Context, source SampleSource, chart *spectrum.ChartState, onUpdate func()) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
	}
	m.current = Open(ctx, source, chart, onUpdate)
	return m.current
}

// Close shuts down the mounted session, if any.
func (m *Mount) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}
