// Package core defines the seams between the reconciliation engine and its
// external collaborators: the realtime transport, the video pipeline and the
// credential store. The engine only ever sees these interfaces; adapters own
// the sockets, processes and files behind them.
package core

import "github.com/openkara/player/internal/domain"

// Transport is the bidirectional event channel to the karaoke server.
// Reconnection is the transport's own policy; consumers just observe the
// resulting connection-state events.
type Transport interface {
	// Events delivers connection-state changes and inbound actions in
	// arrival order. Closed when the transport shuts down for good.
	Events() <-chan Event

	// Emit sends a type-tagged action. Fire-and-forget from the caller's
	// point of view; a full outbound buffer returns an error.
	Emit(actionType string, payload any) error

	Close()
}

// Pipeline renders video for a media URL and reports back what it is doing.
// A loaded URL plus playing=true means frames on screen; Stop unloads.
type Pipeline interface {
	Load(url string, token string) error
	SetPlaying(playing bool)
	SetVolume(volume float64)
	Stop()
	Events() <-chan PipelineEvent
}

// CredentialStore durably mirrors session state across restarts. Writes are
// synchronous: a committed mutation survives a crash.
type CredentialStore interface {
	Credentials() (domain.Credentials, error)
	SaveCredentials(domain.Credentials) error

	History() (domain.History, error)
	SaveHistory(domain.History) error
	ClearHistory() error

	// DeviceID returns the stable per-install id, generating one on first use.
	DeviceID() (string, error)

	Clear() error
}
