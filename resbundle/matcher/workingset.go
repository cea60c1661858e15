package matcher

import (
	roaring "github.com/RoaringBitmap/roaring"
)

// workingSet holds the candidate positions still in the running during a
// pick. It is a roaring bitmap, so it grows with the candidate count instead
// of being capped at a machine word.
type workingSet struct {
	bm *roaring.Bitmap
}

// fullWorkingSet returns a set holding positions [0, n).
func fullWorkingSet(n int) workingSet {
	bm := roaring.New()
	bm.AddRange(0, uint64(n))
	return workingSet{bm: bm}
}

func (ws workingSet) size() uint64 {
	return ws.bm.GetCardinality()
}

// first returns the lowest position, which is the canonically first
// surviving candidate.
func (ws workingSet) first() int {
	return int(ws.bm.Minimum())
}

// subset returns the positions accepted by keep.
func (ws workingSet) subset(keep func(i int) bool) workingSet {
	res := roaring.New()
	it := ws.bm.Iterator()
	for it.HasNext() {
		i := it.Next()
		if keep(int(i)) {
			res.Add(i)
		}
	}
	return workingSet{bm: res}
}

func (ws workingSet) empty() bool {
	return ws.bm.IsEmpty()
}

// each calls fn for every position in ascending order until fn returns false.
func (ws workingSet) each(fn func(i int) bool) {
	ws.bm.Iterate(func(x uint32) bool {
		return fn(int(x))
	})
}
