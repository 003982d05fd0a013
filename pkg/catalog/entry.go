// Copyright © 2018 One Concern

package catalog

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultDir is the name of the reserved directory holding catalog fragments
	DefaultDir = ".dflow"

	// EmptyDirMarker is the name of a file standing for an intentionally empty directory
	EmptyDirMarker = ".empty_dir"
)

// Entry of a catalog. A nil Item marks a slot without contribution.
type Entry struct {
	Item  *string `json:"dflow_list_item"`
	Order int     `json:"order"`
}

// NewEntry builds an entry for some item
func NewEntry(item string, order int) Entry {
	return Entry{Item: &item, Order: order}
}

// Hole builds an entry which reserves a slot without item
func Hole(order int) Entry {
	return Entry{Order: order}
}

// IsHole tells if the entry has no item
func (e Entry) IsHole() bool {
	return e.Item == nil
}

// Path yields the item, or the empty string for a hole
func (e Entry) Path() string {
	if e.Item == nil {
		return ""
	}
	return *e.Item
}

// Equal entries have the same order and the same item
func (e Entry) Equal(other Entry) bool {
	if e.Order != other.Order || e.IsHole() != other.IsHole() {
		return false
	}
	return e.IsHole() || *e.Item == *other.Item
}

func (e Entry) String() string {
	if e.IsHole() {
		return fmt.Sprintf("%d:<none>", e.Order)
	}
	return fmt.Sprintf("%d:%s", e.Order, *e.Item)
}

// less orders entries by order, then holes first, then by item
func less(a, b Entry) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.IsHole() != b.IsHole() {
		return a.IsHole()
	}
	if a.IsHole() {
		return false
	}
	return strings.Compare(*a.Item, *b.Item) < 0
}

type entryKey struct {
	order int
	hole  bool
	item  string
}

func (e Entry) key() entryKey {
	return entryKey{order: e.Order, hole: e.IsHole(), item: e.Path()}
}

// Catalog is a merged, deduplicated and sorted collection of entries
type Catalog []Entry

// Merge folds fragments into a catalog
func Merge(fragments ...[]Entry) Catalog {
	seen := make(map[entryKey]struct{})
	merged := make(Catalog, 0)
	for _, fragment := range fragments {
		for _, e := range fragment {
			k := e.key()
			if _, dupe := seen[k]; dupe {
				continue
			}
			seen[k] = struct{}{}
			merged = append(merged, e)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return less(merged[i], merged[j]) })
	return merged
}

// With yields a new catalog merged with more entries
func (c Catalog) With(entries ...Entry) Catalog {
	return Merge(c, entries)
}

// MaxOrder yields the largest order in the catalog, and false if the catalog is empty
func (c Catalog) MaxOrder() (int, bool) {
	if len(c) == 0 {
		return 0, false
	}
	return c[len(c)-1].Order, true
}

// Renumber yields a copy of the catalog with all orders shifted by offset
func (c Catalog) Renumber(offset int) Catalog {
	res := make(Catalog, len(c))
	for i, e := range c {
		res[i] = e
		res[i].Order += offset
	}
	return res
}

// Items lays out the catalog as slots.
//
// Slots run from 0 to the largest order. A slot without entry yields nil.
// When several entries share the same order, the holes are dropped in favor of
// the items, which are all retained in sorted order.
func (c Catalog) Items() []*string {
	res := make([]*string, 0, len(c))
	next := 0
	for i := 0; i < len(c); {
		order := c[i].Order
		j := i
		for j < len(c) && c[j].Order == order {
			j++
		}
		if order < next {
			// negative orders are not expected, keep whatever they hold
			order = next
		}
		for ; next < order; next++ {
			res = append(res, nil)
		}

		var items []*string
		for _, e := range c[i:j] {
			if !e.IsHole() {
				item := *e.Item
				items = append(items, &item)
			}
		}
		if len(items) == 0 {
			items = []*string{nil}
		}
		res = append(res, items...)
		next = order + 1
		i = j
	}
	return res
}

// Item yields the item in some slot
func (c Catalog) Item(slot int) (*string, bool) {
	items := c.Items()
	if slot < 0 || slot >= len(items) {
		return nil, false
	}
	return items[slot], true
}

// Entries yields the catalog as a plain slice of entries
func (c Catalog) Entries() []Entry {
	return append([]Entry(nil), c...)
}
