package cadence

import "testing"

func TestTableInsertGet(t *testing.T) {
	var tb table[int]
	a := tb.insert(1, nil)
	b := tb.insert(2, nil)
	if a == b {
		t.Fatal("distinct inserts returned the same key")
	}
	if v := tb.get(a); v == nil || *v != 1 {
		t.Errorf("get(a) = %v", v)
	}
	if v := tb.get(b); v == nil || *v != 2 {
		t.Errorf("get(b) = %v", v)
	}
	if tb.count() != 2 {
		t.Errorf("count = %d, want 2", tb.count())
	}
}

func TestTableZeroKeyInvalid(t *testing.T) {
	var tb table[int]
	tb.insert(1, nil)
	if tb.get(key{}) != nil {
		t.Error("zero key resolved to a slot")
	}
}

func TestTableRemoveBumpsGeneration(t *testing.T) {
	var tb table[string]
	old := tb.insert("old", nil)
	if !tb.remove(old) {
		t.Fatal("remove failed")
	}
	if tb.remove(old) {
		t.Error("second remove of the same key succeeded")
	}
	fresh := tb.insert("new", nil)
	if fresh.index != old.index {
		t.Fatalf("slot not reused: %d vs %d", fresh.index, old.index)
	}
	if fresh.gen == old.gen {
		t.Fatal("reused slot kept its generation")
	}
	if tb.get(old) != nil {
		t.Error("stale key aliases the new occupant")
	}
	if v := tb.get(fresh); v == nil || *v != "new" {
		t.Errorf("get(fresh) = %v", v)
	}
}

func TestTablePruneReleasedLease(t *testing.T) {
	var tb table[int]
	owned := newLease("test")
	a := tb.insert(1, owned)
	b := tb.insert(2, nil)

	if n := tb.prune(nil); n != 0 {
		t.Fatalf("pruned %d live slots", n)
	}
	owned.release()

	var seen []key
	if n := tb.prune(func(k key, _ *int) { seen = append(seen, k) }); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if len(seen) != 1 || seen[0] != a {
		t.Errorf("onPrune saw %v, want [%v]", seen, a)
	}
	if tb.get(a) != nil {
		t.Error("pruned slot still resolves")
	}
	if tb.get(b) == nil {
		t.Error("unowned slot was pruned")
	}
}

func TestTableEachInIndexOrder(t *testing.T) {
	var tb table[int]
	for i := range 4 {
		tb.insert(i, nil)
	}
	tb.remove(key{index: 1, gen: 1})
	var got []int
	tb.each(func(_ key, v *int) { got = append(got, *v) })
	want := []int{0, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("each visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("each visited %v, want %v", got, want)
			break
		}
	}
}

func TestRawIDRoundTrip(t *testing.T) {
	id := SpringId{key{index: 7, gen: 3}}
	if back := SpringIdFromRaw(id.Raw()); back != id {
		t.Errorf("SpringIdFromRaw = %v, want %v", back, id)
	}
	tl := TimelineId{key{index: 1 << 20, gen: 1<<31 + 5}}
	if back := TimelineIdFromRaw(tl.Raw()); back != tl {
		t.Errorf("TimelineIdFromRaw = %v, want %v", back, tl)
	}
	if !(SpringId{}).IsZero() {
		t.Error("zero SpringId not IsZero")
	}
}
