// Package domain contains entity without logic, just meta-data
package domain

// QueueID identifies a sing request in a room's queue. Server-assigned,
// non-negative. None marks "no item".
type QueueID int

const None QueueID = -1

// UserID identifies a room member. -1 means unknown.
type UserID int

// QueueItem is one queued sing request. Decoded once from a server
// payload, never mutated locally.
type QueueItem struct {
	QueueID         QueueID  `json:"queueId"`
	UserID          UserID   `json:"userId"`
	UserDisplayName string   `json:"userDisplayName"`
	Title           string   `json:"title"`
	Artist          string   `json:"artist"`
	MediaID         int      `json:"mediaId"`
	MediaType       string   `json:"mediaType"`
	CoSingers       []string `json:"coSingers"`
}

// Snapshot is the server-declared queue: the service order plus an
// id-to-item map. Replaced wholesale on every queue push, never patched.
// An id in Order without a map entry is an absent item, not an error.
type Snapshot struct {
	Order []QueueID             `json:"order"`
	Items map[QueueID]QueueItem `json:"items"`
}

func (s Snapshot) Empty() bool {
	return len(s.Order) == 0
}

func (s Snapshot) Contains(id QueueID) bool {
	for _, qid := range s.Order {
		if qid == id {
			return true
		}
	}
	return false
}

// Item looks up an entry by id. Absent entries are tolerated everywhere.
func (s Snapshot) Item(id QueueID) (QueueItem, bool) {
	if id == None {
		return QueueItem{}, false
	}
	it, ok := s.Items[id]
	return it, ok
}

// Ordered returns the items present in the map, in service order.
func (s Snapshot) Ordered() []QueueItem {
	out := make([]QueueItem, 0, len(s.Order))
	for _, id := range s.Order {
		if it, ok := s.Items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}
