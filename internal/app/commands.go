package app

import (
	"github.com/rs/zerolog/log"

	"github.com/openkara/player/internal/domain"
	"github.com/openkara/player/internal/rotation"
)

// handlePlay starts or resumes playback. Precedence: a pending item wins,
// then a selected-but-unloaded current item, then the fair-order head of a
// fresh queue; with nothing to start it is a plain resume.
func (e *Engine) handlePlay() {
	st := &e.state

	if st.Pending != nil {
		it := *st.Pending
		log.Info().Str("module", "app.engine").Str("title", it.Title).Msg("play: promoting pending item")
		st.CurrentID = it.QueueID
		st.Current = &it
		st.MediaURL = e.mediaURL(it.MediaID)
		st.Playing = true
		st.Position = 0
		st.Pending = nil
		st.AtQueueEnd = false
		e.loadAndPlay()
		return
	}

	if st.Current != nil && st.MediaURL == "" {
		log.Info().Str("module", "app.engine").Str("title", st.Current.Title).Msg("play: starting current item")
		st.MediaURL = e.mediaURL(st.Current.MediaID)
		st.Playing = true
		st.Position = 0
		st.AtQueueEnd = false
		e.loadAndPlay()
		return
	}

	if st.CurrentID == domain.None && !st.Snapshot.Empty() {
		ord := rotation.Compute(st.Snapshot, st.History, domain.None)
		if first, ok := ord.First(); ok {
			log.Info().Str("module", "app.engine").Str("title", first.Title).Msg("play: starting first in fair order")
			st.CurrentID = first.QueueID
			st.Current = &first
			st.MediaURL = e.mediaURL(first.MediaID)
			st.Playing = true
			st.Position = 0
			st.AtQueueEnd = false
			e.loadAndPlay()
			return
		}
	}

	st.Playing = true
	e.pipeline.SetPlaying(true)
}

func (e *Engine) loadAndPlay() {
	if err := e.pipeline.Load(e.state.MediaURL, e.creds.Token); err != nil {
		log.Error().Err(err).Str("module", "app.engine").Str("url", e.state.MediaURL).Msg("pipeline load")
	}
	e.pipeline.SetPlaying(true)
}

func (e *Engine) handlePause() {
	e.state.Playing = false
	e.pipeline.SetPlaying(false)
}

func (e *Engine) handleVolume(v float64) {
	e.state.Volume = v
	e.pipeline.SetVolume(v)
}

// handleReplay re-queues a specific item. The history is cut back to just
// before the replayed id so fairness is recomputed as if everything from
// that point had never been served. An id not in the current snapshot is a
// no-op.
func (e *Engine) handleReplay(id domain.QueueID) {
	st := &e.state
	item, ok := st.Snapshot.Item(id)
	if !ok {
		log.Warn().Str("module", "app.engine").Int("queueId", int(id)).Msg("replay: id not in queue")
		return
	}

	if h, changed := st.History.TruncateBefore(id); changed {
		st.History = h
		e.persistHistory()
	}

	log.Info().Str("module", "app.engine").Str("title", item.Title).Str("singer", item.UserDisplayName).Msg("replay")
	it := item
	st.CurrentID = id
	st.Current = &it
	st.Pending = &it
	st.MediaURL = ""
	st.Playing = false
	st.AtQueueEnd = false
	e.pipeline.Stop()
}

// handleNext commits the current item to history, then either stages the
// fair-order successor as pending (waiting screen, playback starts on the
// next explicit play) or marks the queue exhausted.
func (e *Engine) handleNext() {
	st := &e.state

	if h, changed := st.History.Append(st.CurrentID); changed {
		st.History = h
		e.persistHistory()
	}

	ord := rotation.Compute(st.Snapshot, st.History, st.CurrentID)
	next, ok := ord.NextAfter(st.CurrentID)
	if !ok {
		log.Info().Str("module", "app.engine").Msg("next: end of queue")
		st.Playing = false
		st.AtQueueEnd = true
		st.Pending = nil
		st.MediaURL = ""
		e.pipeline.Stop()
		return
	}

	log.Info().Str("module", "app.engine").Str("singer", next.UserDisplayName).Str("title", next.Title).Msg("next: staged pending item")
	it := next
	st.CurrentID = it.QueueID
	st.Playing = false
	st.AtQueueEnd = false
	st.Position = 0
	st.Pending = &it
	st.MediaURL = ""
	e.pipeline.Stop()
}

// updateQueue installs a replacement snapshot. The history is pruned to the
// new membership first; then either a first item is prepared (queue was
// idle) or the current and pending items are re-resolved against the new
// entities.
func (e *Engine) updateQueue(snap domain.Snapshot) {
	st := &e.state

	if h, changed := st.History.Prune(snap); changed {
		st.History = h
		e.persistHistory()
	}

	if st.CurrentID == domain.None && !snap.Empty() {
		st.Snapshot = snap
		ord := rotation.Compute(snap, st.History, domain.None)
		if first, ok := ord.First(); ok {
			// MediaURL stays empty: the waiting screen shows until an
			// explicit play command arrives.
			st.CurrentID = first.QueueID
			st.Current = &first
			log.Info().Str("module", "app.engine").Str("title", first.Title).Msg("queue: prepared first item")
			return
		}
	}

	st.Snapshot = snap

	if it, ok := snap.Item(st.CurrentID); ok {
		cur := it
		st.Current = &cur
		if st.Playing && st.MediaURL == "" {
			st.MediaURL = e.mediaURL(it.MediaID)
		}
	} else {
		st.Current = nil
	}

	// A pending item pointing at a removed entry would go stale; re-resolve
	// it by id or drop it and fall back to the refreshed current item.
	if st.Pending != nil {
		if it, ok := snap.Item(st.Pending.QueueID); ok {
			p := it
			st.Pending = &p
		} else {
			st.Pending = nil
		}
	}
}
