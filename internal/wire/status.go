package wire

import "github.com/openkara/player/internal/domain"

// Status is the periodic report of local playback truth, emitted every tick
// while connected. historyJSON carries the played-id list as a serialized
// array so controllers can reorder their queue display; nextUserId is the
// lock-in hint for the upcoming singer.
type Status struct {
	QueueID      *domain.QueueID `json:"queueId"`
	IsPlaying    bool            `json:"isPlaying"`
	Position     float64         `json:"position"`
	IsAtQueueEnd bool            `json:"isAtQueueEnd"`
	MediaType    string          `json:"mediaType"`
	Volume       int             `json:"volume"`
	HistoryJSON  string          `json:"historyJSON"`
	NextUserID   *domain.UserID  `json:"nextUserId"`
}
