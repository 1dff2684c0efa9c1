// Package mpv drives a running mpv instance over its JSON IPC socket and
// adapts it to the engine's video pipeline contract. mpv does the actual
// streaming and rendering; this adapter only issues commands and reshapes
// IPC events into pipeline events.
package mpv

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openkara/player/internal/api"
	"github.com/openkara/player/internal/core"
)

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = time.Second
	eventBuffer  = 64
)

type ipcCommand struct {
	Command []any `json:"command"`
}

type ipcResponse struct {
	Data  any    `json:"data"`
	Error string `json:"error"`
}

type ipcEvent struct {
	Event  string  `json:"event"`
	Name   string  `json:"name"`
	Reason string  `json:"reason"`
	Data   float64 `json:"data"`
}

type Player struct {
	socketPath string
	events     chan core.PipelineEvent

	mu     sync.Mutex
	closed bool
	quit   chan struct{}
}

func New(socketPath string) *Player {
	return &Player{
		socketPath: socketPath,
		events:     make(chan core.PipelineEvent, eventBuffer),
		quit:       make(chan struct{}),
	}
}

func (p *Player) Events() <-chan core.PipelineEvent {
	return p.events
}

// Start begins the event listener. It keeps redialing the IPC socket so an
// mpv restart does not take the player down with it.
func (p *Player) Start() {
	go p.listen()
}

func (p *Player) listen() {
	defer close(p.events)
	for {
		select {
		case <-p.quit:
			return
		default:
		}
		if err := p.listenOnce(); err != nil {
			log.Warn().Err(err).Str("module", "mpv").Msg("event socket, retrying")
		}
		select {
		case <-p.quit:
			return
		case <-time.After(time.Second):
		}
	}
}

func (p *Player) listenOnce() error {
	conn, err := net.Dial("unix", p.socketPath)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Property observers feed position and volume back to the engine.
	enc := json.NewEncoder(conn)
	for i, prop := range []string{"time-pos", "volume"} {
		if err := enc.Encode(ipcCommand{Command: []any{"observe_property", i + 1, prop}}); err != nil {
			return fmt.Errorf("observe %s: %w", prop, err)
		}
	}

	dec := json.NewDecoder(conn)
	for {
		select {
		case <-p.quit:
			return nil
		default:
		}
		var ev ipcEvent
		if err := dec.Decode(&ev); err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		p.deliver(ev)
	}
}

func (p *Player) deliver(ev ipcEvent) {
	var out core.PipelineEvent
	switch ev.Event {
	case "end-file":
		switch ev.Reason {
		case "eof":
			out = core.PipelineEvent{Kind: core.PipelineEnded}
		case "error":
			out = core.PipelineEvent{Kind: core.PipelineError, Err: "playback failed"}
		default:
			// "stop" and "quit" are our own doing, not transitions.
			return
		}
	case "property-change":
		switch ev.Name {
		case "time-pos":
			out = core.PipelineEvent{Kind: core.PipelinePosition, Position: ev.Data}
		case "volume":
			out = core.PipelineEvent{Kind: core.PipelineVolume, Volume: ev.Data / 100}
		default:
			return
		}
	case "file-loaded":
		out = core.PipelineEvent{Kind: core.PipelineState, State: "ready"}
	case "playback-restart":
		out = core.PipelineEvent{Kind: core.PipelineState, State: "playing"}
	case "idle":
		out = core.PipelineEvent{Kind: core.PipelineState, State: "idle"}
	case "":
		return
	default:
		return
	}

	select {
	case p.events <- out:
	default:
		log.Warn().Str("module", "mpv").Msg("event buffer full, dropping")
	}
}

// Load points mpv at the media URL, authenticating the stream with the
// session cookie, and starts playback.
func (p *Player) Load(url, token string) error {
	if token != "" {
		header := fmt.Sprintf("Cookie: %s=%s", api.TokenCookie, token)
		if _, err := p.send([]any{"set_property", "http-header-fields", []string{header}}); err != nil {
			return err
		}
	}
	if _, err := p.send([]any{"loadfile", url, "replace"}); err != nil {
		return err
	}
	_, err := p.send([]any{"set_property", "pause", false})
	return err
}

func (p *Player) SetPlaying(playing bool) {
	if _, err := p.send([]any{"set_property", "pause", !playing}); err != nil {
		log.Error().Err(err).Str("module", "mpv").Bool("playing", playing).Msg("set pause")
	}
}

// SetVolume expects 0.0-1.0 and maps to mpv's 0-100 scale.
func (p *Player) SetVolume(volume float64) {
	if _, err := p.send([]any{"set_property", "volume", volume * 100}); err != nil {
		log.Error().Err(err).Str("module", "mpv").Msg("set volume")
	}
}

func (p *Player) Stop() {
	if _, err := p.send([]any{"stop"}); err != nil {
		log.Warn().Err(err).Str("module", "mpv").Msg("stop")
	}
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.quit)
}

// send issues one IPC command with retries for transient socket errors.
func (p *Player) send(command []any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, fmt.Errorf("player closed")
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		result, err := sendOnce(p.socketPath, command)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

func sendOnce(socketPath string, command []any) (any, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// mpv mixes async events into the stream; skip until the command reply.
	dec := json.NewDecoder(conn)
	for {
		var raw map[string]json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		if _, isEvent := raw["event"]; isEvent {
			continue
		}
		var resp ipcResponse
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &resp); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	}
}
