package core

import (
	"encoding/json"

	"github.com/openkara/player/internal/wire"
)

// ConnState is the transport connection status.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	ConnError
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ConnError:
		return "error"
	default:
		return "disconnected"
	}
}

func (s ConnState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// EventKind discriminates transport events.
type EventKind int

const (
	EventConn EventKind = iota
	EventAction
)

// Event is one inbound transport occurrence. All events funnel into the
// engine's single loop, so ordering is arrival ordering.
type Event struct {
	Kind   EventKind
	Conn   ConnState
	Action wire.Action
}

func ConnEvent(s ConnState) Event {
	return Event{Kind: EventConn, Conn: s}
}

func ActionEvent(a wire.Action) Event {
	return Event{Kind: EventAction, Action: a}
}

// PipelineEventKind discriminates video pipeline callbacks.
type PipelineEventKind int

const (
	PipelineState PipelineEventKind = iota
	PipelinePosition
	PipelineVolume
	PipelineEnded
	PipelineError
)

// PipelineEvent is one callback from the video pipeline, reshaped into a
// value the engine loop can consume like any other event.
type PipelineEvent struct {
	Kind     PipelineEventKind
	State    string
	Position float64
	Volume   float64
	Err      string
}
