// Package wire defines the action protocol spoken over the realtime channel
// and the codecs for its payloads. Decoding is deliberately forgiving: a
// malformed payload degrades to a defaulted value plus warnings, never an
// error, because a live control channel tolerates data loss better than it
// tolerates a crashed player.
package wire

import (
	"encoding/json"
	"strings"
)

// Actions the player emits.
const (
	ActionEmitStatus = "server/PLAYER_EMIT_STATUS"
	ActionEmitLeave  = "server/PLAYER_EMIT_LEAVE"
	ActionReqNext    = "server/PLAYER_REQ_NEXT"
)

// Commands the server broadcasts to players.
const (
	CmdPlay   = "player/cmd_play"
	CmdPause  = "player/cmd_pause"
	CmdNext   = "player/cmd_next"
	CmdVolume = "player/cmd_volume"
	CmdReplay = "player/cmd_replay"
)

// Action is one type-tagged message on the channel.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseAction decodes a raw frame into an Action.
func ParseAction(data []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return Action{}, err
	}
	return a, nil
}

// Kind classifies an inbound action tag. Matching is case-insensitive and,
// for queue pushes and status echoes, substring-based, because the server
// has shipped both slash and underscore spellings.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlay
	KindPause
	KindNext
	KindVolume
	KindReplay
	KindQueuePush
	KindStatusEcho
)

func Classify(tag string) Kind {
	t := strings.ToLower(tag)
	switch t {
	case CmdPlay:
		return KindPlay
	case CmdPause:
		return KindPause
	case CmdNext:
		return KindNext
	case CmdVolume:
		return KindVolume
	case CmdReplay:
		return KindReplay
	}
	switch {
	case strings.Contains(t, "queue/push") || strings.Contains(t, "queue_push"):
		return KindQueuePush
	case strings.Contains(t, "player_status"):
		// Our own periodic status echoed back by the server.
		return KindStatusEcho
	}
	return KindUnknown
}

// FloatPayload reads a bare float payload (cmd_volume). Falls back to def.
func FloatPayload(raw json.RawMessage, def float64) float64 {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

// IntPayload reads a bare integer payload (cmd_replay). Falls back to def.
func IntPayload(raw json.RawMessage, def int) int {
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}
