package domain

import "testing"

func testSnap(ids ...QueueID) Snapshot {
	s := Snapshot{Order: ids, Items: map[QueueID]QueueItem{}}
	for _, id := range ids {
		s.Items[id] = QueueItem{QueueID: id}
	}
	return s
}

func TestHistory_Prune(t *testing.T) {
	h := History{1, 2, 3, 4}
	s := testSnap(2, 4)

	got, changed := h.Prune(s)

	if !changed {
		t.Error("Prune should report a change")
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Errorf("Prune = %v, want [2 4]", got)
	}
	for _, id := range got {
		if !s.Contains(id) {
			t.Errorf("pruned history contains %d, not in snapshot", id)
		}
	}

	same, changed := got.Prune(s)
	if changed {
		t.Errorf("second Prune changed: %v", same)
	}
}

func TestHistory_TruncateBefore(t *testing.T) {
	h := History{1, 2, 3}

	got, found := h.TruncateBefore(2)
	if !found {
		t.Fatal("TruncateBefore should find id 2")
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("TruncateBefore(2) = %v, want [1]", got)
	}

	// Absent id leaves the history unchanged.
	same, found := h.TruncateBefore(9)
	if found || len(same) != 3 {
		t.Errorf("TruncateBefore(9) = %v, found=%v", same, found)
	}

	// Truncating at the head empties the history.
	empty, _ := h.TruncateBefore(1)
	if len(empty) != 0 {
		t.Errorf("TruncateBefore(1) = %v, want []", empty)
	}
}

func TestHistory_Append(t *testing.T) {
	h := History{1}

	got, changed := h.Append(2)
	if !changed || len(got) != 2 || got[1] != 2 {
		t.Errorf("Append(2) = %v, changed=%v", got, changed)
	}

	same, changed := got.Append(2)
	if changed || len(same) != 2 {
		t.Errorf("duplicate Append = %v, changed=%v", same, changed)
	}

	none, changed := got.Append(None)
	if changed || len(none) != 2 {
		t.Errorf("Append(None) = %v, changed=%v", none, changed)
	}
}

func TestHistory_JSONRoundTrip(t *testing.T) {
	cases := []History{
		{},
		{1},
		{3, 1, 2},
	}
	for _, h := range cases {
		got := ParseHistory(h.EncodeJSON())
		if len(got) != len(h) {
			t.Fatalf("round trip %v = %v", h, got)
		}
		for i := range h {
			if got[i] != h[i] {
				t.Fatalf("round trip %v = %v", h, got)
			}
		}
	}

	if s := (History{}).EncodeJSON(); s != "[]" {
		t.Errorf("empty EncodeJSON = %q, want []", s)
	}
	if got := ParseHistory("not json"); len(got) != 0 {
		t.Errorf("ParseHistory(garbage) = %v, want empty", got)
	}
	if got := ParseHistory(""); len(got) != 0 {
		t.Errorf("ParseHistory(empty) = %v, want empty", got)
	}
}
