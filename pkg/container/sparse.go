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
	"sort"
	"strings"
)

type (
	// Sparse is a sequence of values in an absolute index space, where some
	// indexes may have no value (breaks). It is useful when values are
	// sampled along another sequence (times, for instance) and not every
	// position of that sequence has a value.
	//
	// The values are kept in Chunk segments. A segment is a run of values
	// with consecutive indexes. The last segment is active until a break is
	// inserted, after that the next pushed value starts a new segment.
	//
	// Sparse is not synchronized.
	Sparse[D any] struct {
		segs   []*Chunk[D]
		next   int
		active bool
		// maxCap bounds the number of stored values, 0 means no bound
		maxCap int
		size   int
	}

	// SparseIterator walks over Sparse values from the front and from the back
	// in the same manner as Iterator does.
	SparseIterator[D any] struct {
		its []*Iterator[D]
		fi  int
		bi  int
	}
)

// NewSparse creates new Sparse, the first pushed value will get the index
// start. Positive capacity bounds the number of values the sequence may keep.
func NewSparse[D any](start, capacity int) *Sparse[D] {
	s := new(Sparse[D])
	if start > 0 {
		s.next = start
	}
	if capacity > 0 {
		s.maxCap = capacity
	}
	return s
}

// Push adds v with the index Next()
func (s *Sparse[D]) Push(v D) {
	if !s.active {
		seg := NewChunk[D](0)
		seg.base = s.next
		s.segs = append(s.segs, seg)
		s.active = true
	}
	s.segs[len(s.segs)-1].Push(v)
	s.next++
	s.size++
}

// TryPush adds v with the index Next() if the capacity allows. It returns
// ErrCapacityExceeded otherwise.
func (s *Sparse[D]) TryPush(v D) error {
	if s.maxCap > 0 && s.size >= s.maxCap {
		return ErrCapacityExceeded
	}
	s.Push(v)
	return nil
}

// PushAt adds v with the index idx. If idx is greater than Next(), the
// indexes between them are left without values. ErrIndexInPast is returned
// if idx is less than Next(), and ErrCapacityExceeded if the capacity bound
// is reached. Nothing is changed if an error is returned.
func (s *Sparse[D]) PushAt(idx int, v D) error {
	if idx < s.next {
		return ErrIndexInPast
	}
	if s.maxCap > 0 && s.size >= s.maxCap {
		return ErrCapacityExceeded
	}
	if idx > s.next {
		s.active = false
		s.next = idx
	}
	s.Push(v)
	return nil
}

// InsertBreak seals the active segment, so the next pushed value starts a
// new one.
func (s *Sparse[D]) InsertBreak() {
	s.active = false
}

// Skip leaves the index Next() without a value
func (s *Sparse[D]) Skip() {
	s.active = false
	s.next++
}

// Prune removes all values with index less than min. Indexes of the rest of
// values are not changed. Next() becomes min, if it was less than min.
func (s *Sparse[D]) Prune(min int) {
	i := 0
	for ; i < len(s.segs) && s.segs[i].Next() <= min; i++ {
		s.size -= s.segs[i].Len()
		s.segs[i] = nil
	}
	s.segs = s.segs[i:]
	if len(s.segs) > 0 {
		sz := s.segs[0].Len()
		s.segs[0].Prune(min)
		s.size -= sz - s.segs[0].Len()
	} else {
		s.active = false
	}

	if min > s.next {
		s.next = min
		s.active = false
	}
}

// Shrink releases the storage which is not used. slack is applied to the
// active segment only.
func (s *Sparse[D]) Shrink(slack int) {
	for i, seg := range s.segs {
		if s.active && i == len(s.segs)-1 {
			seg.Shrink(slack)
		} else {
			seg.Shrink(0)
		}
	}
	if cap(s.segs) > len(s.segs) {
		segs := make([]*Chunk[D], len(s.segs))
		copy(segs, s.segs)
		s.segs = segs
	}
}

// Clear removes all values and breaks. Next() is not changed.
func (s *Sparse[D]) Clear() {
	s.segs = nil
	s.active = false
	s.size = 0
}

// Get returns the value by its index. ok is false if there is no value with
// the index.
func (s *Sparse[D]) Get(idx int) (v D, ok bool) {
	i := sort.Search(len(s.segs), func(i int) bool { return s.segs[i].Next() > idx })
	if i == len(s.segs) {
		return v, false
	}
	return s.segs[i].Get(idx)
}

// First returns the value with the smallest index
func (s *Sparse[D]) First() (v D, ok bool) {
	if len(s.segs) == 0 {
		return v, false
	}
	return s.segs[0].First()
}

// Last returns the value with the biggest index
func (s *Sparse[D]) Last() (v D, ok bool) {
	if len(s.segs) == 0 {
		return v, false
	}
	return s.segs[len(s.segs)-1].Last()
}

// Len returns number of values stored
func (s *Sparse[D]) Len() int {
	return s.size
}

// Next returns the index the next pushed value will get. This is the length
// of the sequence including breaks.
func (s *Sparse[D]) Next() int {
	return s.next
}

// Base returns the index of the first stored value, or Next() if there are
// no values.
func (s *Sparse[D]) Base() int {
	if len(s.segs) == 0 {
		return s.next
	}
	return s.segs[0].Base()
}

// NoElements returns whether there are no values stored
func (s *Sparse[D]) NoElements() bool {
	return s.size == 0
}

// Segments returns number of runs of consecutive values
func (s *Sparse[D]) Segments() int {
	return len(s.segs)
}

// Capacity returns the bound for number of stored values, 0 means no bound.
func (s *Sparse[D]) Capacity() int {
	return s.maxCap
}

// Clone returns an independent copy of s
func (s *Sparse[D]) Clone() *Sparse[D] {
	res := &Sparse[D]{next: s.next, active: s.active, maxCap: s.maxCap, size: s.size}
	if s.segs != nil {
		res.segs = make([]*Chunk[D], len(s.segs))
		for i, seg := range s.segs {
			res.segs[i] = seg.Clone()
		}
	}
	return res
}

// Iter returns an iterator over all values with their indexes
func (s *Sparse[D]) Iter() *SparseIterator[D] {
	its := make([]*Iterator[D], len(s.segs))
	for i, seg := range s.segs {
		its[i] = seg.Iter()
	}
	return &SparseIterator[D]{its: its, bi: len(its) - 1}
}

// IterAlongBase returns an iterator over the values with index t or greater.
func (s *Sparse[D]) IterAlongBase(t int) *SparseIterator[D] {
	i := sort.Search(len(s.segs), func(i int) bool { return s.segs[i].Next() > t })
	its := make([]*Iterator[D], 0, len(s.segs)-i)
	for ; i < len(s.segs); i++ {
		its = append(its, &s.segs[i].IterAlongBase(t).Iterator)
	}
	return &SparseIterator[D]{its: its, bi: len(its) - 1}
}

func (s *Sparse[D]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sparse{next=%d, len=%d, cap=%d, segs=[", s.next, s.size, s.maxCap)
	for i, seg := range s.segs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(seg.String())
	}
	sb.WriteString("]}")
	return sb.String()
}

// Next returns the next value from the front
func (si *SparseIterator[D]) Next() (idx int, v D, ok bool) {
	for si.fi <= si.bi {
		if idx, v, ok = si.its[si.fi].Next(); ok {
			return
		}
		si.fi++
	}
	return
}

// NextBack returns the next value from the back
func (si *SparseIterator[D]) NextBack() (idx int, v D, ok bool) {
	for si.bi >= si.fi {
		if idx, v, ok = si.its[si.bi].NextBack(); ok {
			return
		}
		si.bi--
	}
	return
}

// Len returns number of values which are not returned yet
func (si *SparseIterator[D]) Len() int {
	res := 0
	for i := si.fi; i <= si.bi; i++ {
		res += si.its[i].Len()
	}
	return res
}
