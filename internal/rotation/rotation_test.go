package rotation

import (
	"testing"

	"github.com/openkara/player/internal/domain"
)

// snap builds a snapshot where users[i] owns order[i].
func snap(order []domain.QueueID, users []domain.UserID) domain.Snapshot {
	s := domain.Snapshot{Order: order, Items: map[domain.QueueID]domain.QueueItem{}}
	for i, id := range order {
		s.Items[id] = domain.QueueItem{
			QueueID: id,
			UserID:  users[i],
			MediaID: int(id) * 10,
			Title:   "song",
		}
	}
	return s
}

func ids(o Order) []domain.QueueID {
	return o.IDs()
}

func equalIDs(t *testing.T, got []domain.QueueID, want ...domain.QueueID) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestCompute_EmptyQueue(t *testing.T) {
	o := Compute(domain.Snapshot{}, domain.History{1, 2}, domain.None)

	if o.Len() != 0 {
		t.Errorf("Len() = %d, want 0", o.Len())
	}
	if _, ok := o.First(); ok {
		t.Error("First() should report nothing for an empty queue")
	}
	if _, ok := o.NextAfter(1); ok {
		t.Error("NextAfter() should report nothing for an empty queue")
	}
	if o.Remaining(1) != 0 {
		t.Errorf("Remaining() = %d, want 0", o.Remaining(1))
	}
}

func TestCompute_AlternatesUsers(t *testing.T) {
	// A,B,A in queue order with no history: A goes first (first encountered
	// at infinite-distance tie), then B (never served beats A's second), then
	// A again.
	s := snap([]domain.QueueID{1, 2, 3}, []domain.UserID{10, 20, 10})

	o := Compute(s, domain.History{}, domain.None)

	equalIDs(t, ids(o), 1, 2, 3)

	first, ok := o.First()
	if !ok || first.QueueID != 1 {
		t.Fatalf("First() = %v, %v, want item 1", first.QueueID, ok)
	}
	next, ok := o.NextAfter(1)
	if !ok || next.QueueID != 2 {
		t.Fatalf("NextAfter(1) = %v, %v, want item 2", next.QueueID, ok)
	}
}

func TestCompute_NeverServedBeatsRecentlyServed(t *testing.T) {
	// User 10 already sang id 1; user 20 never sang. 20's item goes before
	// 10's next, even though 10's was submitted earlier.
	s := snap([]domain.QueueID{1, 2, 3}, []domain.UserID{10, 10, 20})

	o := Compute(s, domain.History{1}, domain.None)

	equalIDs(t, ids(o), 1, 3, 2)
}

func TestCompute_MaxDistanceWins(t *testing.T) {
	// History: 10 sang, then 20. 10 is more distant, so 10's next item
	// precedes 20's.
	s := snap([]domain.QueueID{1, 2, 3, 4}, []domain.UserID{10, 20, 20, 10})

	o := Compute(s, domain.History{1, 2}, domain.None)

	equalIDs(t, ids(o), 1, 2, 4, 3)
}

func TestCompute_SubmissionOrderPreservedPerUser(t *testing.T) {
	s := snap([]domain.QueueID{5, 6, 7, 8}, []domain.UserID{10, 10, 20, 20})

	o := Compute(s, domain.History{}, domain.None)

	// Alternation between users, but 5 before 6 and 7 before 8 always.
	got := ids(o)
	pos := map[domain.QueueID]int{}
	for i, id := range got {
		pos[id] = i
	}
	if pos[5] > pos[6] {
		t.Errorf("user 10's items reordered: %v", got)
	}
	if pos[7] > pos[8] {
		t.Errorf("user 20's items reordered: %v", got)
	}
}

func TestCompute_IsPermutation(t *testing.T) {
	s := snap(
		[]domain.QueueID{1, 2, 3, 4, 5, 6},
		[]domain.UserID{10, 20, 10, 30, 20, 10},
	)
	histories := []domain.History{
		{},
		{1},
		{1, 2},
		{2, 4, 1},
		{9, 1}, // stale entry 9 must be dropped
		{1, 2, 3, 4, 5, 6},
	}

	for _, h := range histories {
		o := Compute(s, h, domain.None)
		seen := map[domain.QueueID]bool{}
		for _, id := range ids(o) {
			if !s.Contains(id) {
				t.Errorf("history %v: id %d not in snapshot", h, id)
			}
			if seen[id] {
				t.Errorf("history %v: id %d appears twice", h, id)
			}
			seen[id] = true
		}
		if o.Len() != len(s.Order) {
			t.Errorf("history %v: Len() = %d, want %d", h, o.Len(), len(s.Order))
		}
	}
}

func TestCompute_CurrentTreatedAsServed(t *testing.T) {
	// Current id 1 (user 10) is not in history yet but counts as served, so
	// user 20 is up next.
	s := snap([]domain.QueueID{1, 2, 3}, []domain.UserID{10, 10, 20})

	o := Compute(s, domain.History{}, 1)

	equalIDs(t, ids(o), 1, 3, 2)
}

func TestCompute_HistoryPrefixKept(t *testing.T) {
	s := snap([]domain.QueueID{1, 2, 3}, []domain.UserID{10, 20, 30})

	o := Compute(s, domain.History{2, 1}, domain.None)

	got := ids(o)
	if got[0] != 2 || got[1] != 1 {
		t.Fatalf("served prefix = %v, want [2 1 ...]", got)
	}
}

func TestNextAfter_Edges(t *testing.T) {
	s := snap([]domain.QueueID{1, 2}, []domain.UserID{10, 20})
	o := Compute(s, domain.History{}, domain.None)

	if _, ok := o.NextAfter(2); ok {
		t.Error("NextAfter(last) should report nothing")
	}
	if _, ok := o.NextAfter(99); ok {
		t.Error("NextAfter(absent id) should report nothing, not wrap to head")
	}
	head, ok := o.NextAfter(domain.None)
	if !ok || head.QueueID != 1 {
		t.Errorf("NextAfter(None) = %v, %v, want head item 1", head.QueueID, ok)
	}
}

func TestRemaining(t *testing.T) {
	s := snap([]domain.QueueID{1, 2, 3}, []domain.UserID{10, 20, 30})
	o := Compute(s, domain.History{}, domain.None)

	if got := o.Remaining(1); got != 2 {
		t.Errorf("Remaining(1) = %d, want 2", got)
	}
	if got := o.Remaining(3); got != 0 {
		t.Errorf("Remaining(3) = %d, want 0", got)
	}
	if got := o.Remaining(domain.None); got != 3 {
		t.Errorf("Remaining(None) = %d, want 3", got)
	}
	if got := o.Remaining(99); got != 3 {
		t.Errorf("Remaining(absent) = %d, want 3", got)
	}
}

func TestNextDistinctUser(t *testing.T) {
	s := snap([]domain.QueueID{1, 2, 3}, []domain.UserID{10, 10, 20})
	o := Compute(s, domain.History{1}, 1)

	uid, ok := o.NextDistinctUser(1, 10)
	if !ok || uid != 20 {
		t.Errorf("NextDistinctUser = %v, %v, want user 20", uid, ok)
	}

	// Only one user left: no distinct successor.
	solo := snap([]domain.QueueID{1, 2}, []domain.UserID{10, 10})
	so := Compute(solo, domain.History{}, 1)
	if _, ok := so.NextDistinctUser(1, 10); ok {
		t.Error("NextDistinctUser should report nothing when all items share the user")
	}
}

func TestCompute_AbsentItemsTolerated(t *testing.T) {
	// Order references id 3 with no map entry: it is skipped from grouping
	// but never panics.
	s := domain.Snapshot{
		Order: []domain.QueueID{1, 3},
		Items: map[domain.QueueID]domain.QueueItem{
			1: {QueueID: 1, UserID: 10},
		},
	}

	o := Compute(s, domain.History{3}, domain.None)

	// 3 survives in the served prefix (it is in the order), 1 is emitted.
	equalIDs(t, ids(o), 3, 1)
	if _, ok := o.NextAfter(3); !ok {
		t.Error("NextAfter(3) should yield item 1")
	}
}
