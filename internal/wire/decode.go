package wire

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/openkara/player/internal/domain"
)

// Defaults applied to missing queue item fields.
const (
	DefaultTitle     = "Unknown"
	DefaultArtist    = "Unknown"
	DefaultMediaType = "video/mp4"
)

// DecodeSnapshot turns a queue-push payload into a Snapshot. The payload may
// arrive wrapped one level under a "payload" key; both shapes are accepted.
//
// Shape: { result: [id...], entities: { "<id>": {...} } }. A missing or
// malformed "result" yields an empty snapshot. Entity keys that do not parse
// as integers are skipped. Missing item fields get explicit defaults. The
// returned warnings describe everything that was skipped or defaulted away;
// no input ever produces an error.
func DecodeSnapshot(raw json.RawMessage) (domain.Snapshot, []string) {
	var warns []string
	snap := domain.Snapshot{Items: map[domain.QueueID]domain.QueueItem{}}

	body := unwrap(raw)

	var outer struct {
		Result   []domain.QueueID           `json:"result"`
		Entities map[string]json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		warns = append(warns, fmt.Sprintf("queue payload not an object: %v", err))
		return snap, warns
	}
	if outer.Result == nil {
		warns = append(warns, "queue payload missing result")
		return snap, warns
	}
	snap.Order = outer.Result

	for key, rawItem := range outer.Entities {
		id, err := strconv.Atoi(key)
		if err != nil {
			warns = append(warns, fmt.Sprintf("entity key %q is not an id", key))
			continue
		}
		item, w := decodeItem(domain.QueueID(id), rawItem)
		warns = append(warns, w...)
		snap.Items[domain.QueueID(id)] = item
	}
	return snap, warns
}

// unwrap descends one level into a "payload" wrapper when present.
func unwrap(raw json.RawMessage) json.RawMessage {
	var probe struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && len(probe.Payload) > 0 {
		return probe.Payload
	}
	return raw
}

func decodeItem(id domain.QueueID, raw json.RawMessage) (domain.QueueItem, []string) {
	item := domain.QueueItem{
		QueueID:   id,
		UserID:    -1,
		Title:     DefaultTitle,
		Artist:    DefaultArtist,
		MediaID:   -1,
		MediaType: DefaultMediaType,
		CoSingers: []string{},
	}

	var fields struct {
		UserID          *domain.UserID `json:"userId"`
		UserDisplayName *string        `json:"userDisplayName"`
		Title           *string        `json:"title"`
		Artist          *string        `json:"artist"`
		MediaID         *int           `json:"mediaId"`
		MediaType       *string        `json:"mediaType"`
		CoSingers       []string       `json:"coSingers"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return item, []string{fmt.Sprintf("entity %d not an object, using defaults", id)}
	}

	if fields.UserID != nil {
		item.UserID = *fields.UserID
	}
	if fields.UserDisplayName != nil {
		item.UserDisplayName = *fields.UserDisplayName
	}
	if fields.Title != nil {
		item.Title = *fields.Title
	}
	if fields.Artist != nil {
		item.Artist = *fields.Artist
	}
	if fields.MediaID != nil {
		item.MediaID = *fields.MediaID
	}
	if fields.MediaType != nil {
		item.MediaType = *fields.MediaType
	}
	if fields.CoSingers != nil {
		item.CoSingers = fields.CoSingers
	}
	return item, nil
}
