package app

import (
	"github.com/rs/zerolog/log"

	"github.com/openkara/player/internal/domain"
	"github.com/openkara/player/internal/rotation"
	"github.com/openkara/player/internal/wire"
)

// startEmission begins the periodic status report. Idempotent: calling it
// while already emitting just resets the flag, and the first report goes out
// immediately rather than waiting a tick.
func (e *Engine) startEmission() {
	e.emitting = true
	e.emitStatus()
}

func (e *Engine) stopEmission() {
	e.emitting = false
}

// emitStatus reports local playback truth. Fire-and-forget: a failed send is
// logged and the next tick resends current truth anyway.
func (e *Engine) emitStatus() {
	st := &e.state

	status := wire.Status{
		IsPlaying:    st.Playing,
		Position:     st.Position,
		IsAtQueueEnd: st.AtQueueEnd,
		MediaType:    wire.DefaultMediaType,
		Volume:       int(st.Volume * 100),
		HistoryJSON:  st.History.EncodeJSON(),
	}
	if st.CurrentID != domain.None {
		id := st.CurrentID
		status.QueueID = &id
	}
	if st.Current != nil && st.Current.MediaType != "" {
		status.MediaType = st.Current.MediaType
	}
	if st.Current != nil {
		ord := rotation.Compute(st.Snapshot, st.History, st.CurrentID)
		if uid, ok := ord.NextDistinctUser(st.CurrentID, st.Current.UserID); ok {
			u := uid
			status.NextUserID = &u
		}
	}

	if err := e.transport.Emit(wire.ActionEmitStatus, status); err != nil {
		log.Warn().Err(err).Str("module", "app.engine").Msg("emit status")
	}
}
