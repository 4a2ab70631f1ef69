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

type (
	// Iterator walks over a Chunk's elements from the front (Next) and from
	// the back (NextBack). Both cursors move towards each other and the
	// iteration is over when they meet, so every element is returned once.
	//
	// The iterator refers to the chunk storage, it doesn't copy it. Changing
	// the chunk while the iterator is in use causes undefined results.
	Iterator[D any] struct {
		elems []D
		base  int
		// front and back are relative positions, the iterator returns
		// elements from [front, back)
		front int
		back  int
	}

	// AlignedIterator is an Iterator which starts from the target absolute
	// index, rather than from the chunk base. See Chunk.IterAlongBase()
	AlignedIterator[D any] struct {
		Iterator[D]
		target int
	}
)

// Next returns the absolute index and the value of the next element from
// the front. ok is false when the iteration is over.
func (it *Iterator[D]) Next() (idx int, v D, ok bool) {
	if it.front >= it.back {
		return 0, v, false
	}
	idx = it.base + it.front
	v = it.elems[it.front]
	it.front++
	return idx, v, true
}

// NextBack returns the absolute index and the value of the next element from
// the back. ok is false when the iteration is over.
func (it *Iterator[D]) NextBack() (idx int, v D, ok bool) {
	if it.front >= it.back {
		return 0, v, false
	}
	it.back--
	return it.base + it.back, it.elems[it.back], true
}

// Len returns number of elements which are not returned yet
func (it *Iterator[D]) Len() int {
	return it.back - it.front
}

// Target returns the absolute index the iterator was aligned to
func (ait *AlignedIterator[D]) Target() int {
	return ait.target
}
