package domain

import "encoding/json"

// History is the ordered list of queue ids already served, oldest first.
// It mirrors server-visible truth and is persisted on every change.
type History []QueueID

func (h History) Contains(id QueueID) bool {
	for _, qid := range h {
		if qid == id {
			return true
		}
	}
	return false
}

// Prune drops ids no longer present in the snapshot. The server cannot
// replay a dequeued request, so stale entries are dead weight. The second
// return reports whether anything was removed.
func (h History) Prune(s Snapshot) (History, bool) {
	out := make(History, 0, len(h))
	for _, id := range h {
		if s.Contains(id) {
			out = append(out, id)
		}
	}
	return out, len(out) != len(h)
}

// TruncateBefore cuts the history back to just before id. Used on replay:
// everything from the replayed item onward becomes unserved again. If id is
// not in the history, h is returned unchanged.
func (h History) TruncateBefore(id QueueID) (History, bool) {
	for i, qid := range h {
		if qid == id {
			return append(History(nil), h[:i]...), true
		}
	}
	return h, false
}

// Append adds id if not already present.
func (h History) Append(id QueueID) (History, bool) {
	if id == None || h.Contains(id) {
		return h, false
	}
	return append(append(History(nil), h...), id), true
}

// EncodeJSON serializes the history as a JSON id array, the persisted and
// on-wire format ("[1,2,3]").
func (h History) EncodeJSON() string {
	if len(h) == 0 {
		return "[]"
	}
	b, err := json.Marshal([]QueueID(h))
	if err != nil {
		return "[]"
	}
	return string(b)
}

// ParseHistory decodes the persisted JSON id array. Malformed input
// degrades to an empty history.
func ParseHistory(s string) History {
	if s == "" {
		return History{}
	}
	var ids []QueueID
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return History{}
	}
	return History(ids)
}
