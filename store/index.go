package store

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colgo/value"
)

// Index is a per-column bitmap index: one roaring bitmap of row ids per
// distinct value. Nulls are never placed in the index, so equality search
// for null is not supported through it.
//
// The index can be disabled and rebuilt from the owning column; bulk loads
// use this to skip per-row maintenance and pay the cost once at the end.
//
// Index mutation always happens while the caller holds the owning table's
// write lock; it is not independently synchronized.
type Index struct {
	disabled bool
	entries  map[string]*indexEntry
}

type indexEntry struct {
	val value.Value
	bm  *roaring.Bitmap
}

// NewIndex creates an empty, enabled bitmap index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]*indexEntry),
	}
}

// Add sets bit row in the bitmap keyed by v, creating the bitmap if absent.
// No-op while the index is disabled or for null values.
func (ix *Index) Add(v value.Value, row uint32) {
	if ix.disabled || v.IsNull() {
		return
	}
	key := v.Key()
	e, ok := ix.entries[key]
	if !ok {
		e = &indexEntry{val: v, bm: roaring.New()}
		ix.entries[key] = e
	}
	e.bm.Add(row)
}

// Search returns a copy of the bitmap for v, or an empty bitmap if absent.
// Callers may mutate the result freely.
func (ix *Index) Search(v value.Value) *roaring.Bitmap {
	if e, ok := ix.entries[v.Key()]; ok {
		return e.bm.Clone()
	}
	return roaring.New()
}

// SearchNot returns the complement of Search(v) within [0, rowCount).
func (ix *Index) SearchNot(v value.Value, rowCount int) *roaring.Bitmap {
	bm := ix.Search(v)
	bm.Flip(0, uint64(rowCount))
	return bm
}

// SearchLessThan returns the union of the bitmaps of every distinct key
// ordering before v (or equal to it when orEqual is set).
//
// Cost is O(distinct values), not O(1): range queries are rarer than
// equality and distinct-value counts are typically small relative to row
// count, so the linear key scan is a deliberate tradeoff.
func (ix *Index) SearchLessThan(v value.Value, orEqual bool) *roaring.Bitmap {
	out := roaring.New()
	for _, e := range ix.entries {
		if less, ok := value.Less(e.val, v); ok && less {
			out.Or(e.bm)
		} else if orEqual && value.Equal(e.val, v) {
			out.Or(e.bm)
		}
	}
	return out
}

// SearchGreaterThan returns the union of the bitmaps of every distinct key
// ordering after v (or equal to it when orEqual is set).
func (ix *Index) SearchGreaterThan(v value.Value, orEqual bool) *roaring.Bitmap {
	out := roaring.New()
	for _, e := range ix.entries {
		if gr, ok := value.Less(v, e.val); ok && gr {
			out.Or(e.bm)
		} else if orEqual && value.Equal(e.val, v) {
			out.Or(e.bm)
		}
	}
	return out
}

// Disabled reports whether the index is currently disabled.
func (ix *Index) Disabled() bool { return ix.disabled }

// Disable clears the index and stops per-append maintenance until Rebuild.
func (ix *Index) Disable() {
	ix.disabled = true
	ix.entries = make(map[string]*indexEntry)
}

// Clear drops all posting lists but keeps the index enabled.
func (ix *Index) Clear() {
	ix.entries = make(map[string]*indexEntry)
}

// Rebuild re-enables the index and reconstructs it by scanning the owning
// column, adding every non-null row.
func (ix *Index) Rebuild(c *Column) {
	ix.disabled = false
	ix.entries = make(map[string]*indexEntry)
	for row := 0; row < c.Len(); row++ {
		if c.IsNull(row) {
			continue
		}
		ix.Add(c.at(row), uint32(row))
	}
}

// DistinctValues returns the number of distinct indexed values.
func (ix *Index) DistinctValues() int { return len(ix.entries) }

// SizeInBytes returns the estimated memory held by the posting lists.
func (ix *Index) SizeInBytes() uint64 {
	var total uint64
	for _, e := range ix.entries {
		total += e.bm.GetSizeInBytes()
	}
	return total
}
