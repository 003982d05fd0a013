package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func strp(s string) *string { return &s }

func derefs(items []*string) []string {
	res := make([]string, len(items))
	for i, it := range items {
		if it == nil {
			res[i] = "<nil>"
			continue
		}
		res[i] = *it
	}
	return res
}

func TestMergeDedup(t *testing.T) {
	a := []Entry{NewEntry("a.txt", 0), NewEntry("b.txt", 1)}
	b := []Entry{NewEntry("b.txt", 1), Hole(2)}
	c := []Entry{Hole(2)}

	merged := Merge(a, b, c)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"a.txt", "b.txt", "<nil>"}, derefs(merged.Items()))

	max, ok := merged.MaxOrder()
	require.True(t, ok)
	assert.Equal(t, 2, max)
}

func TestMergeSortsByOrder(t *testing.T) {
	merged := Merge(
		[]Entry{NewEntry("file3", 3)},
		[]Entry{NewEntry("file1", 1)},
		[]Entry{NewEntry("file0", 0)},
		[]Entry{NewEntry("file2", 2)},
	)
	assert.Equal(t, []string{"file0", "file1", "file2", "file3"}, derefs(merged.Items()))
}

func TestItemsWithHoles(t *testing.T) {
	merged := Merge([]Entry{NewEntry("x", 0), NewEntry("z", 3)})
	assert.Equal(t, []string{"x", "<nil>", "<nil>", "z"}, derefs(merged.Items()))

	item, ok := merged.Item(3)
	require.True(t, ok)
	require.NotNil(t, item)
	assert.Equal(t, "z", *item)

	item, ok = merged.Item(1)
	require.True(t, ok)
	assert.Nil(t, item)

	_, ok = merged.Item(4)
	assert.False(t, ok)
}

func TestItemsPreferItemsOverHoles(t *testing.T) {
	// a retried producer may leave both a placeholder and an item for the same slot
	merged := Merge([]Entry{NewEntry("a", 0), Hole(1)}, []Entry{NewEntry("b", 1)})
	assert.Equal(t, []string{"a", "b"}, derefs(merged.Items()))
}

func TestEmptyCatalog(t *testing.T) {
	merged := Merge()
	_, ok := merged.MaxOrder()
	assert.False(t, ok)
	assert.Empty(t, merged.Items())
}

func TestRenumber(t *testing.T) {
	merged := Merge([]Entry{NewEntry("a", 0), Hole(1)})
	shifted := merged.Renumber(5)

	assert.Equal(t, 5, shifted[0].Order)
	assert.Equal(t, 6, shifted[1].Order)
	assert.Equal(t, 0, merged[0].Order, "renumbering must not alter the original catalog")
}

func TestEntryEqual(t *testing.T) {
	assert.True(t, Hole(1).Equal(Hole(1)))
	assert.False(t, Hole(1).Equal(Hole(2)))
	assert.False(t, Hole(1).Equal(NewEntry("a", 1)))
	assert.True(t, NewEntry("a", 1).Equal(NewEntry("a", 1)))
	assert.Equal(t, "1:<none>", Hole(1).String())
	assert.Equal(t, "1:a", NewEntry("a", 1).String())
}

func genEntry() *rapid.Generator[Entry] {
	return rapid.Custom(func(t *rapid.T) Entry {
		order := rapid.IntRange(0, 8).Draw(t, "order")
		if rapid.Bool().Draw(t, "hole") {
			return Hole(order)
		}
		return NewEntry(rapid.SampledFrom([]string{"a", "b", "c", "d/e"}).Draw(t, "item"), order)
	})
}

func genFragment() *rapid.Generator[[]Entry] {
	return rapid.SliceOfN(genEntry(), 0, 6)
}

func TestMergeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f1 := genFragment().Draw(t, "f1")
		f2 := genFragment().Draw(t, "f2")

		m12 := Merge(f1, f2)
		m21 := Merge(f2, f1)
		if len(m12) != len(m21) {
			t.Fatalf("merge is not commutative: %v vs %v", m12, m21)
		}
		for i := range m12 {
			if !m12[i].Equal(m21[i]) {
				t.Fatalf("merge is not commutative at %d: %v vs %v", i, m12, m21)
			}
		}

		again := Merge(m12, f1, f2)
		if len(again) != len(m12) {
			t.Fatalf("merge is not idempotent: %v vs %v", again, m12)
		}

		for i := 1; i < len(m12); i++ {
			if m12[i-1].Order > m12[i].Order {
				t.Fatalf("merge is not sorted: %v", m12)
			}
			if m12[i-1].Equal(m12[i]) {
				t.Fatalf("merge retains duplicates: %v", m12)
			}
		}
	})
}
