// Package app owns the playback reconciliation engine: the single place
// where server commands, queue snapshots, video pipeline callbacks and the
// status tick meet the player's state. All mutations run on one goroutine in
// arrival order, so the engine itself needs no locking.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openkara/player/internal/api"
	"github.com/openkara/player/internal/core"
	"github.com/openkara/player/internal/domain"
	"github.com/openkara/player/internal/rotation"
	"github.com/openkara/player/internal/wire"
)

const DefaultStatusInterval = time.Second

type Engine struct {
	transport core.Transport
	pipeline  core.Pipeline
	store     core.CredentialStore

	creds    domain.Credentials
	interval time.Duration

	state     State
	emitting  bool
	leaveSent bool

	mu        sync.RWMutex
	published State
}

// New builds an engine from persisted session state. The history is read
// back from the store so fairness survives a restart.
func New(t core.Transport, p core.Pipeline, s core.CredentialStore, creds domain.Credentials, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	hist, err := s.History()
	if err != nil {
		log.Error().Err(err).Str("module", "app.engine").Msg("load history, starting empty")
		hist = domain.History{}
	}
	e := &Engine{
		transport: t,
		pipeline:  p,
		store:     s,
		creds:     creds,
		interval:  interval,
		state: State{
			CurrentID: domain.None,
			Volume:    1.0,
			History:   hist,
		},
	}
	e.published = e.state.clone()
	return e
}

// Run drives the engine until ctx is cancelled or the transport closes. It
// is the only goroutine that touches e.state.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	pipeEvents := e.pipeline.Events()

	for {
		select {
		case <-ctx.Done():
			e.teardown()
			return
		case ev, ok := <-e.transport.Events():
			if !ok {
				log.Info().Str("module", "app.engine").Msg("transport event stream closed")
				e.teardown()
				return
			}
			e.handleTransport(ev)
		case pe, ok := <-pipeEvents:
			if !ok {
				pipeEvents = nil
				continue
			}
			e.handlePipeline(pe)
		case <-ticker.C:
			if e.emitting {
				e.emitStatus()
			}
		}
		e.publish()
	}
}

func (e *Engine) handleTransport(ev core.Event) {
	switch ev.Kind {
	case core.EventConn:
		e.state.Conn = ev.Conn
		// Status emission follows the connection: started (idempotently) on
		// connect, halted otherwise. Playback state is untouched either way.
		if ev.Conn == core.Connected {
			e.startEmission()
		} else {
			e.stopEmission()
		}
	case core.EventAction:
		e.dispatch(ev.Action)
	}
}

func (e *Engine) dispatch(a wire.Action) {
	switch wire.Classify(a.Type) {
	case wire.KindPlay:
		e.handlePlay()
	case wire.KindPause:
		e.handlePause()
	case wire.KindNext:
		e.handleNext()
	case wire.KindVolume:
		v := wire.FloatPayload(a.Payload, 1.0)
		e.handleVolume(clamp01(v))
	case wire.KindReplay:
		id := wire.IntPayload(a.Payload, -1)
		if id >= 0 {
			e.handleReplay(domain.QueueID(id))
		}
	case wire.KindQueuePush:
		snap, warns := wire.DecodeSnapshot(a.Payload)
		for _, w := range warns {
			log.Warn().Str("module", "app.engine").Str("warn", w).Msg("queue decode")
		}
		e.updateQueue(snap)
	case wire.KindStatusEcho:
		// Our own periodic status bounced back by the server.
	default:
		log.Debug().Str("module", "app.engine").Str("type", a.Type).Msg("ignoring action")
	}
}

func (e *Engine) handlePipeline(ev core.PipelineEvent) {
	switch ev.Kind {
	case core.PipelineEnded:
		e.onPlaybackEnded()
	case core.PipelinePosition:
		if ev.Position >= 0 {
			e.state.Position = ev.Position
		}
	case core.PipelineVolume:
		e.state.Volume = clamp01(ev.Volume)
	case core.PipelineError:
		e.state.PipelineErr = ev.Err
		log.Error().Str("module", "app.engine").Str("err", ev.Err).Msg("pipeline error")
	case core.PipelineState:
		e.state.PipelineState = ev.State
		e.state.PipelineErr = ""
	}
}

// onPlaybackEnded shows the waiting screen right away and asks the server to
// advance. The engine does not advance locally: the authoritative cmd_next
// broadcast coming back is what moves the queue, which keeps two players in
// a room from double-advancing.
func (e *Engine) onPlaybackEnded() {
	e.state.Playing = false
	e.state.MediaURL = ""
	e.pipeline.Stop()
	if err := e.transport.Emit(wire.ActionReqNext, nil); err != nil {
		log.Warn().Err(err).Str("module", "app.engine").Msg("emit advance request")
	}
}

func (e *Engine) persistHistory() {
	if err := e.store.SaveHistory(e.state.History); err != nil {
		log.Error().Err(err).Str("module", "app.engine").Msg("persist history")
	}
}

func (e *Engine) mediaURL(mediaID int) string {
	base := api.NormalizeBaseURL(e.creds.ServerURL)
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%sapi/media/%d?type=video", base, mediaID)
}

func (e *Engine) teardown() {
	e.stopEmission()
	if !e.leaveSent {
		e.leaveSent = true
		if err := e.transport.Emit(wire.ActionEmitLeave, nil); err != nil {
			log.Warn().Err(err).Str("module", "app.engine").Msg("emit leave")
		}
	}
	e.pipeline.Stop()
	e.transport.Close()
	e.publish()
}

func (e *Engine) publish() {
	e.mu.Lock()
	e.published = e.state.clone()
	e.mu.Unlock()
}

// StateSnapshot returns a copy of the last published state. Safe from any
// goroutine; used by the diagnostics surface.
func (e *Engine) StateSnapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.published
}

// Remaining reports how many fair-order entries follow the current item.
func (e *Engine) Remaining() int {
	st := e.StateSnapshot()
	ord := rotation.Compute(st.Snapshot, st.History, st.CurrentID)
	return ord.Remaining(st.CurrentID)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
