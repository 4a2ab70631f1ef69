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
	"testing"

	"github.com/stretchr/testify/assert"
)

// population of a sparse sequence, 0 means a break
var testPopulation = []int{1, 2, 3, 0, 0, 0, 7, 8, 9, 10}

func newTestSparse() *Sparse[int] {
	s := NewSparse[int](0, 0)
	for _, v := range testPopulation {
		if v == 0 {
			s.Skip()
			continue
		}
		s.Push(v)
	}
	return s
}

func collectSparse(it *SparseIterator[int]) []idxVal {
	var res []idxVal
	for idx, v, ok := it.Next(); ok; idx, v, ok = it.Next() {
		res = append(res, idxVal{idx, v})
	}
	return res
}

func expectedSparse(from int) []idxVal {
	var res []idxVal
	for i, v := range testPopulation {
		if i >= from && v != 0 {
			res = append(res, idxVal{i, v})
		}
	}
	return res
}

func TestSparsePush(t *testing.T) {
	s := NewSparse[int](0, 0)
	assert.True(t, s.NoElements())
	assert.Equal(t, 0, s.Base())

	s.Push(1)
	assert.Equal(t, 1, s.Segments())
	assert.Equal(t, 1, s.Next())

	s.Push(2)
	s.Skip()
	assert.Equal(t, 1, s.Segments())
	assert.Equal(t, 3, s.Next())

	s.Skip()
	assert.Equal(t, 4, s.Next())

	s.Push(3)
	assert.Equal(t, 2, s.Segments())
	assert.Equal(t, 5, s.Next())
	assert.Equal(t, 3, s.Len())

	v, ok := s.Get(4)
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = s.Get(3)
	assert.False(t, ok)
	_, ok = s.Get(5)
	assert.False(t, ok)
}

func TestSparseSkipFirst(t *testing.T) {
	s := NewSparse[int](0, 0)
	s.Skip()
	s.Push(1)
	assert.Equal(t, 2, s.Next())
	assert.Equal(t, 1, s.Base())
	assert.Equal(t, 1, s.Segments())
}

func TestSparseInsertBreak(t *testing.T) {
	s := NewSparse[int](5, 0)
	s.Push(1)
	s.InsertBreak()
	s.Push(2)
	assert.Equal(t, 2, s.Segments())
	assert.Equal(t, []idxVal{{5, 1}, {6, 2}}, collectSparse(s.Iter()))
}

func TestSparsePushAt(t *testing.T) {
	s := NewSparse[int](0, 3)
	assert.NoError(t, s.PushAt(2, 1))
	assert.NoError(t, s.PushAt(3, 2))
	assert.Equal(t, ErrIndexInPast, s.PushAt(3, 5))
	assert.NoError(t, s.PushAt(7, 3))
	assert.Equal(t, ErrCapacityExceeded, s.PushAt(8, 4))
	assert.Equal(t, ErrCapacityExceeded, s.TryPush(4))
	assert.Equal(t, 8, s.Next())
	assert.Equal(t, 2, s.Segments())
	assert.Equal(t, []idxVal{{2, 1}, {3, 2}, {7, 3}}, collectSparse(s.Iter()))

	s.Prune(4)
	assert.NoError(t, s.TryPush(4))
	assert.Equal(t, []idxVal{{7, 3}, {8, 4}}, collectSparse(s.Iter()))
}

func TestSparsePrune(t *testing.T) {
	for idx := -1; idx <= 12; idx++ {
		s := newTestSparse()
		s.Prune(idx)
		assert.Equal(t, expectedSparse(idx), collectSparse(s.Iter()), "prune to %d", idx)
		assert.Equal(t, len(expectedSparse(idx)), s.Len())
		exp := len(testPopulation)
		if idx > exp {
			exp = idx
		}
		assert.Equal(t, exp, s.Next())
	}
}

func TestSparsePruneEmpty(t *testing.T) {
	s := NewSparse[int](0, 0)
	s.Prune(0)
	assert.Equal(t, 0, s.Next())
	s.Prune(3)
	assert.Equal(t, 3, s.Next())
	assert.Equal(t, 3, s.Base())
	s.Push(1)
	v, ok := s.Get(3)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSparsePruneRepeatedly(t *testing.T) {
	s := NewSparse[int](0, 0)
	s.Skip()
	s.Skip()
	s.Skip()
	for _, v := range testPopulation {
		if v == 0 {
			s.Skip()
			continue
		}
		s.Push(v)
	}

	for i := 1; i <= 4; i++ {
		s.Prune(i)
		assert.Equal(t, len(testPopulation)+3, s.Next())
		if i <= 3 {
			assert.Equal(t, 3, s.Base())
			assert.Equal(t, 2, s.Segments())
		}
	}
	assert.Equal(t, 4, s.Base())
	v, _ := s.First()
	assert.Equal(t, 2, v)
}

func TestSparseFirstLast(t *testing.T) {
	s := newTestSparse()
	v, ok := s.First()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = s.Last()
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	s = NewSparse[int](0, 0)
	_, ok = s.First()
	assert.False(t, ok)
	_, ok = s.Last()
	assert.False(t, ok)
}

func TestSparseIter(t *testing.T) {
	s := newTestSparse()
	assert.Equal(t, expectedSparse(0), collectSparse(s.Iter()))

	var back []idxVal
	it := s.Iter()
	assert.Equal(t, 7, it.Len())
	for idx, v, ok := it.NextBack(); ok; idx, v, ok = it.NextBack() {
		back = append([]idxVal{{idx, v}}, back...)
	}
	assert.Equal(t, expectedSparse(0), back)

	it = s.Iter()
	idx, _, _ := it.NextBack()
	assert.Equal(t, 9, idx)
	idx, _, _ = it.Next()
	assert.Equal(t, 0, idx)
	assert.Equal(t, 5, it.Len())
	var mid []idxVal
	for idx, v, ok := it.Next(); ok; idx, v, ok = it.Next() {
		mid = append(mid, idxVal{idx, v})
	}
	assert.Equal(t, []idxVal{{1, 2}, {2, 3}, {6, 7}, {7, 8}, {8, 9}}, mid)
	_, _, ok := it.NextBack()
	assert.False(t, ok)
}

func TestSparseIterAlongBase(t *testing.T) {
	s := newTestSparse()
	for tgt := -1; tgt <= 11; tgt++ {
		assert.Equal(t, expectedSparse(tgt), collectSparse(s.IterAlongBase(tgt)), "target %d", tgt)
	}
}

func TestSparseShrinkClear(t *testing.T) {
	s := newTestSparse()
	s.Prune(7)
	s.Shrink(5)
	assert.Equal(t, expectedSparse(7), collectSparse(s.Iter()))
	s.Push(11)
	v, _ := s.Get(10)
	assert.Equal(t, 11, v)

	s.Clear()
	assert.True(t, s.NoElements())
	assert.Equal(t, 11, s.Next())
	assert.Equal(t, 11, s.Base())
	assert.Equal(t, 0, s.Segments())
}

func TestSparseClone(t *testing.T) {
	s := newTestSparse()
	s2 := s.Clone()
	assert.Equal(t, s, s2)
	assert.Equal(t, s.String(), s2.String())

	s2.Prune(8)
	s2.Push(11)
	assert.Equal(t, expectedSparse(0), collectSparse(s.Iter()))
	assert.Equal(t, []idxVal{{8, 9}, {9, 10}, {10, 11}}, collectSparse(s2.Iter()))
}

func TestSparseString(t *testing.T) {
	s := NewSparse[int](0, 0)
	s.Push(1)
	s.Skip()
	s.Push(3)
	assert.Equal(t, "Sparse{next=3, len=2, cap=0, segs=[Chunk{base=0, len=1, cap=0, elems=[1]}, Chunk{base=2, len=1, cap=0, elems=[3]}]}", s.String())
}
