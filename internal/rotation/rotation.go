// Package rotation computes the fair play order for a karaoke queue.
//
// The order balances turns across singers: whoever has waited longest since
// their last served item goes next, but a singer's own requests keep their
// submission order. The computation is a pure function of the snapshot, the
// play history and the currently playing id, so every client that sees the
// same inputs derives the same order.
package rotation

import "github.com/openkara/player/internal/domain"

// Order is the computed fair sequence for one snapshot/history pair.
type Order struct {
	ids  []domain.QueueID
	snap domain.Snapshot
}

// Compute builds the fair order.
//
// Served ids (history filtered to the snapshot, plus the current id if it is
// present and not yet recorded) come first, in history order. Upcoming ids
// are grouped per user in submission order, then emitted greedily: on each
// step the user with the greatest distance since their last served slot wins,
// never-served users counting as infinitely distant. Ties keep the user that
// was encountered first while grouping.
func Compute(snap domain.Snapshot, hist domain.History, current domain.QueueID) Order {
	if snap.Empty() {
		return Order{snap: snap}
	}

	served := make([]domain.QueueID, 0, len(hist)+1)
	for _, id := range hist {
		if snap.Contains(id) {
			served = append(served, id)
		}
	}
	if current != domain.None {
		if _, ok := snap.Item(current); ok && !contains(served, current) {
			served = append(served, current)
		}
	}

	upcoming := make([]domain.QueueID, 0, len(snap.Order))
	for _, id := range snap.Order {
		if !contains(served, id) {
			upcoming = append(upcoming, id)
		}
	}
	if len(upcoming) == 0 {
		return Order{ids: served, snap: snap}
	}

	// Turn log: user ids in the order they were served so far. Entries whose
	// item vanished from the map contribute nothing.
	turns := make([]domain.UserID, 0, len(served)+len(upcoming))
	for _, id := range served {
		if it, ok := snap.Item(id); ok {
			turns = append(turns, it.UserID)
		}
	}

	// Per-user pending queues, users kept in first-encountered order.
	type userQueue struct {
		user domain.UserID
		ids  []domain.QueueID
	}
	var groups []*userQueue
	byUser := make(map[domain.UserID]*userQueue)
	for _, id := range upcoming {
		it, ok := snap.Item(id)
		if !ok {
			continue
		}
		g := byUser[it.UserID]
		if g == nil {
			g = &userQueue{user: it.UserID}
			byUser[it.UserID] = g
			groups = append(groups, g)
		}
		g.ids = append(g.ids, id)
	}

	ids := served
	for {
		var best *userQueue
		bestDist := -1
		for _, g := range groups {
			if len(g.ids) == 0 {
				continue
			}
			dist := distance(turns, g.user)
			if dist > bestDist {
				bestDist = dist
				best = g
			}
		}
		if best == nil {
			break
		}
		ids = append(ids, best.ids[0])
		best.ids = best.ids[1:]
		turns = append(turns, best.user)
	}

	return Order{ids: ids, snap: snap}
}

// distance is the number of turns since the user's last appearance in the
// turn log. Never-served users are infinitely distant.
func distance(turns []domain.UserID, user domain.UserID) int {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i] == user {
			return len(turns) - i
		}
	}
	return int(^uint(0) >> 1)
}

func contains(ids []domain.QueueID, id domain.QueueID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// IDs returns the fair order as a slice. The slice is owned by the Order.
func (o Order) IDs() []domain.QueueID {
	return o.ids
}

func (o Order) Len() int {
	return len(o.ids)
}

// First returns the head of the fair order.
func (o Order) First() (domain.QueueItem, bool) {
	for _, id := range o.ids {
		if it, ok := o.snap.Item(id); ok {
			return it, true
		}
		break
	}
	return domain.QueueItem{}, false
}

// NextAfter returns the item following id in the fair order. Passing None
// yields the head. An id that is absent from the order, or last in it,
// yields nothing.
func (o Order) NextAfter(id domain.QueueID) (domain.QueueItem, bool) {
	next := o.indexOf(id) + 1
	if id != domain.None && next == 0 {
		return domain.QueueItem{}, false
	}
	if next >= len(o.ids) {
		return domain.QueueItem{}, false
	}
	return o.snap.Item(o.ids[next])
}

// Remaining counts fair-order entries strictly after id, or the whole order
// when id is None or not found.
func (o Order) Remaining(id domain.QueueID) int {
	if len(o.ids) == 0 {
		return 0
	}
	idx := o.indexOf(id)
	if idx < 0 {
		return len(o.ids)
	}
	return len(o.ids) - idx - 1
}

// NextDistinctUser scans forward from id for the first entry owned by a
// different user. This is the "lock-in hint" announced to the server so the
// upcoming singer is not reshuffled mid-song.
func (o Order) NextDistinctUser(id domain.QueueID, user domain.UserID) (domain.UserID, bool) {
	for i := o.indexOf(id) + 1; i < len(o.ids); i++ {
		if it, ok := o.snap.Item(o.ids[i]); ok && it.UserID != user {
			return it.UserID, true
		}
	}
	return 0, false
}

func (o Order) indexOf(id domain.QueueID) int {
	if id == domain.None {
		return -1
	}
	for i, v := range o.ids {
		if v == id {
			return i
		}
	}
	return -1
}
