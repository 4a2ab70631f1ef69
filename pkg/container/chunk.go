// Copyright 2018-2019 The logrange Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package container

import (
	"fmt"

	"github.com/mohae/deepcopy"
)

type (
	// Chunk is a window of values with a stable absolute index space. Every
	// pushed value receives the next absolute index, and the oldest values can
	// be pruned away without changing the indexes of the remaining ones.
	//
	// The first stored element has the absolute index Base(), the element at
	// relative position r has Base()+r. Base() never decreases.
	//
	// Chunk is not synchronized. It must be protected by its owner if it is
	// used from multiple go-routines.
	Chunk[D any] struct {
		elems []D
		base  int
		// maxCap is the TryPush bound, 0 means no bound
		maxCap int
	}
)

// NewChunk returns new empty Chunk with base 0. If capacity is positive, the
// storage for capacity elements is reserved and TryPush will refuse to store
// more than capacity elements. Non-positive capacity means the chunk is not
// bounded.
func NewChunk[D any](capacity int) *Chunk[D] {
	return NewChunkWithReserve[D](capacity, capacity)
}

// NewChunkWithReserve same as NewChunk, but allows to specify the reserved
// storage size and the capacity bound independently.
func NewChunkWithReserve[D any](reserve, capacity int) *Chunk[D] {
	c := new(Chunk[D])
	if reserve > 0 {
		c.elems = make([]D, 0, reserve)
	}
	if capacity > 0 {
		c.maxCap = capacity
	}
	return c
}

// Push appends v to the chunk. The value gets the absolute index Next()
// had before the call. Push never checks the capacity bound.
func (c *Chunk[D]) Push(v D) {
	c.elems = append(c.elems, v)
}

// TryPush works like Push, but it returns ErrCapacityExceeded if the chunk
// is bounded and the bound is reached. The chunk is not changed then and
// v is not retained.
func (c *Chunk[D]) TryPush(v D) error {
	if c.maxCap > 0 && len(c.elems) >= c.maxCap {
		return ErrCapacityExceeded
	}
	c.elems = append(c.elems, v)
	return nil
}

// Prune removes all elements with absolute index less than min and moves
// base to min. If min is not greater than Base(), nothing happens. If min is
// beyond the last element, the chunk becomes empty with Base() == min.
func (c *Chunk[D]) Prune(min int) {
	if min <= c.base {
		return
	}

	var zero D
	n := min - c.base
	if n < len(c.elems) {
		for i := 0; i < n; i++ {
			c.elems[i] = zero
		}
		c.elems = c.elems[n:]
	} else {
		for i := range c.elems {
			c.elems[i] = zero
		}
		c.elems = c.elems[:0]
	}
	c.base = min
}

// Shrink releases the backing storage above Len()+slack elements. The chunk
// content is not changed.
func (c *Chunk[D]) Shrink(slack int) {
	if slack < 0 {
		slack = 0
	}
	sz := len(c.elems) + slack
	if cap(c.elems) <= sz {
		return
	}
	if sz == 0 {
		c.elems = nil
		return
	}
	elems := make([]D, len(c.elems), sz)
	copy(elems, c.elems)
	c.elems = elems
}

// First returns the element at Base(). ok is false if the chunk is empty.
func (c *Chunk[D]) First() (v D, ok bool) {
	if len(c.elems) == 0 {
		return v, false
	}
	return c.elems[0], true
}

// Last returns the most recently pushed element, which is still in the chunk.
func (c *Chunk[D]) Last() (v D, ok bool) {
	if len(c.elems) == 0 {
		return v, false
	}
	return c.elems[len(c.elems)-1], true
}

// NoElements returns true if the chunk is empty
func (c *Chunk[D]) NoElements() bool {
	return len(c.elems) == 0
}

// Len returns number of elements in the chunk
func (c *Chunk[D]) Len() int {
	return len(c.elems)
}

// Base returns absolute index of the first element
func (c *Chunk[D]) Base() int {
	return c.base
}

// Next returns absolute index the next pushed element will get
func (c *Chunk[D]) Next() int {
	return c.base + len(c.elems)
}

// Capacity returns the TryPush bound. 0 means the chunk is not bounded.
func (c *Chunk[D]) Capacity() int {
	return c.maxCap
}

// Get returns the element by its absolute index idx. ok is false if idx is
// out of [Base(), Next()) range.
func (c *Chunk[D]) Get(idx int) (v D, ok bool) {
	if idx < c.base || idx >= c.base+len(c.elems) {
		return v, false
	}
	return c.elems[idx-c.base], true
}

// Clear removes all elements. Base() stays the same, so the next pushed
// element will get the index Base().
func (c *Chunk[D]) Clear() {
	var zero D
	for i := range c.elems {
		c.elems[i] = zero
	}
	c.elems = c.elems[:0]
}

// Clone returns an independent copy of the chunk. Elements are copied by
// value, so values which hold references share them with the original.
func (c *Chunk[D]) Clone() *Chunk[D] {
	res := &Chunk[D]{base: c.base, maxCap: c.maxCap}
	if c.elems != nil {
		res.elems = make([]D, len(c.elems), cap(c.elems))
		copy(res.elems, c.elems)
	}
	return res
}

// CloneDeep works like Clone, but every element is deep-copied as well.
// Unexported fields of struct elements are not copied.
func (c *Chunk[D]) CloneDeep() *Chunk[D] {
	res := c.Clone()
	for i, v := range res.elems {
		if cp, ok := deepcopy.Copy(v).(D); ok {
			res.elems[i] = cp
		}
	}
	return res
}

// Iter returns an iterator over the chunk elements. The chunk must not be
// changed until the iterator is used.
func (c *Chunk[D]) Iter() *Iterator[D] {
	return &Iterator[D]{elems: c.elems, base: c.base, back: len(c.elems)}
}

// IterAlongBase returns an iterator over the elements with absolute index
// t or greater. It allows to walk several chunks with different Base()
// values together, by absolute index. The chunk must not be changed until
// the iterator is used.
func (c *Chunk[D]) IterAlongBase(t int) *AlignedIterator[D] {
	it := &AlignedIterator[D]{target: t}
	it.elems = c.elems
	it.base = c.base
	it.back = len(c.elems)
	if t > c.base {
		if n := t - c.base; n < len(c.elems) {
			it.front = n
		} else {
			it.front = it.back
		}
	}
	return it
}

func (c *Chunk[D]) String() string {
	return fmt.Sprintf("Chunk{base=%d, len=%d, cap=%d, elems=%v}", c.base, len(c.elems), c.maxCap, c.elems)
}

// CommonBase returns the maximum Base() of the chunks, which is the first
// absolute index all of them could have. It returns 0 if no chunks provided.
func CommonBase[D any](chunks ...*Chunk[D]) int {
	res := 0
	for _, c := range chunks {
		if c.base > res {
			res = c.base
		}
	}
	return res
}
