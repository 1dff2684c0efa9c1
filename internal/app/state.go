package app

import (
	"github.com/openkara/player/internal/core"
	"github.com/openkara/player/internal/domain"
)

// State is the player's observable state, owned exclusively by the engine
// loop. Current and Pending hold copies of snapshot items; an empty MediaURL
// means nothing is loaded and the waiting screen is showing.
//
// Invariant: MediaURL is empty exactly when the player should not be
// rendering frames, and an empty MediaURL implies Playing is false.
type State struct {
	Conn core.ConnState `json:"connectionState"`

	Snapshot  domain.Snapshot   `json:"queue"`
	CurrentID domain.QueueID    `json:"currentQueueId"`
	Current   *domain.QueueItem `json:"currentItem"`

	// Pending is an item chosen to play next but not yet promoted by an
	// explicit play command (the waiting-screen state after cmd_next or
	// cmd_replay).
	Pending *domain.QueueItem `json:"pendingItem"`

	AtQueueEnd bool    `json:"isAtQueueEnd"`
	MediaURL   string  `json:"mediaUrl"`
	Playing    bool    `json:"isPlaying"`
	Position   float64 `json:"position"`
	Volume     float64 `json:"volume"`

	History domain.History `json:"historyIds"`

	PipelineState string `json:"pipelineState"`
	PipelineErr   string `json:"pipelineError"`
}

func (s State) clone() State {
	out := s
	out.History = append(domain.History(nil), s.History...)
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}
