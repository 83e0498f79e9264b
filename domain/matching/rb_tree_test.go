package matching

import (
	"math/rand"
	"sort"
	"testing"
)

func TestRBTreeOrderedWalks(t *testing.T) {
	tree := newRBTree()
	rng := rand.New(rand.NewSource(3))

	keys := map[int64]bool{}
	for i := 0; i < 500; i++ {
		k := rng.Int63n(200)
		tree.upsert(k)
		keys[k] = true
	}
	if tree.levelCount() != len(keys) {
		t.Fatalf("size = %d, want %d distinct keys", tree.levelCount(), len(keys))
	}

	want := make([]int64, 0, len(keys))
	for k := range keys {
		want = append(want, k)
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	var asc []int64
	tree.ascend(func(lvl *priceLevel) bool {
		asc = append(asc, lvl.ticks)
		return true
	})
	if len(asc) != len(want) {
		t.Fatalf("ascend visited %d levels, want %d", len(asc), len(want))
	}
	for i := range want {
		if asc[i] != want[i] {
			t.Fatalf("ascend[%d] = %d, want %d", i, asc[i], want[i])
		}
	}

	var desc []int64
	tree.descend(func(lvl *priceLevel) bool {
		desc = append(desc, lvl.ticks)
		return true
	})
	for i := range want {
		if desc[i] != want[len(want)-1-i] {
			t.Fatalf("descend[%d] = %d, want %d", i, desc[i], want[len(want)-1-i])
		}
	}
}

// TestRBTreeRandomInsertDelete interleaves random inserts and deletes so
// every rebalancing case fires on both sides, including the mirrored
// double-black rotations that ordered key patterns never reach. The tree is
// checked against a sorted reference after every delete.
func TestRBTreeRandomInsertDelete(t *testing.T) {
	tree := newRBTree()
	rng := rand.New(rand.NewSource(41))
	live := map[int64]bool{}

	verify := func(op string, key int64) {
		t.Helper()
		want := make([]int64, 0, len(live))
		for k := range live {
			want = append(want, k)
		}
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

		var got []int64
		tree.ascend(func(lvl *priceLevel) bool {
			got = append(got, lvl.ticks)
			return true
		})
		if len(got) != len(want) {
			t.Fatalf("after %s %d: ascend visited %d levels, want %d", op, key, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("after %s %d: ascend[%d] = %d, want %d", op, key, i, got[i], want[i])
			}
		}
		if len(want) == 0 {
			if tree.min() != nil || tree.max() != nil {
				t.Fatalf("after %s %d: empty tree still reports extrema", op, key)
			}
			return
		}
		if got := tree.min().ticks; got != want[0] {
			t.Fatalf("after %s %d: min = %d, want %d", op, key, got, want[0])
		}
		if got := tree.max().ticks; got != want[len(want)-1] {
			t.Fatalf("after %s %d: max = %d, want %d", op, key, got, want[len(want)-1])
		}
	}

	for i := 0; i < 3000; i++ {
		k := rng.Int63n(64)
		if rng.Intn(2) == 0 {
			tree.upsert(k)
			live[k] = true
		} else {
			if tree.delete(k) != live[k] {
				t.Fatalf("delete %d: tree and reference disagree on presence", k)
			}
			delete(live, k)
			verify("delete", k)
		}
	}

	if tree.levelCount() != len(live) {
		t.Fatalf("size = %d, want %d", tree.levelCount(), len(live))
	}
}

func TestRBTreeDeleteKeepsMinMax(t *testing.T) {
	tree := newRBTree()
	for k := int64(1); k <= 100; k++ {
		tree.upsert(k)
	}

	// Peel from both ends, checking extrema each time.
	lo, hi := int64(1), int64(100)
	for lo < hi {
		if got := tree.min().ticks; got != lo {
			t.Fatalf("min = %d, want %d", got, lo)
		}
		if got := tree.max().ticks; got != hi {
			t.Fatalf("max = %d, want %d", got, hi)
		}
		if !tree.delete(lo) || !tree.delete(hi) {
			t.Fatalf("delete failed at (%d, %d)", lo, hi)
		}
		lo++
		hi--
	}

	if tree.delete(424242) {
		t.Error("deleting an absent key should report false")
	}

	tree.clear()
	if tree.min() != nil || tree.levelCount() != 0 {
		t.Error("clear left state behind")
	}
}
