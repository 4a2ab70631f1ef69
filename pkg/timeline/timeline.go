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

package timeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/logrange/slider/pkg/container"
)

type (
	// Timeline keeps a sequence of sample times. Every time gets an absolute
	// index, so values sampled at the times can be stored in other containers
	// with the same index space (see container.Chunk and container.Sparse).
	//
	// Times are stored as millisecond offsets from the previous one, the
	// latest time is kept in whole. Checkpoints remember times of some
	// indexes and are used for pruning the timeline by age.
	//
	// Timeline is not synchronized.
	Timeline struct {
		// offsets[i] is the distance from time i-1 to time i in milliseconds
		offsets *container.Chunk[uint32]
		cpts    *container.Chunk[Checkpoint]
		latest  time.Time

		// hasLatest stays true after the times are pruned, so the order of
		// added times is checked against the latest one anyway
		hasLatest bool
	}

	// Checkpoint is a pair of time and its index in a Timeline
	Checkpoint struct {
		Time  time.Time
		Index int
	}
)

var (
	// ErrTimeInPast is returned by Add when the time is before the latest one
	ErrTimeInPast = fmt.Errorf("The time is before the latest one in the timeline.")

	// ErrGapTooLarge is returned by Add when the distance between the time and
	// the latest one cannot be stored
	ErrGapTooLarge = fmt.Errorf("The time is too far from the latest one in the timeline.")
)

// New creates new Timeline with storage for reserve times allocated
func New(reserve int) *Timeline {
	tl := new(Timeline)
	tl.offsets = container.NewChunkWithReserve[uint32](reserve, 0)
	tl.cpts = container.NewChunk[Checkpoint](0)
	return tl
}

// Add appends t to the timeline and returns its absolute index.
func (tl *Timeline) Add(t time.Time) (int, error) {
	var offs uint32
	if tl.hasLatest {
		d := t.Sub(tl.latest)
		if d < 0 {
			return -1, ErrTimeInPast
		}
		ms := d / time.Millisecond
		if ms > math.MaxUint32 {
			return -1, ErrGapTooLarge
		}
		offs = uint32(ms)
	}

	idx := tl.offsets.Next()
	tl.offsets.Push(offs)
	tl.latest = t
	tl.hasLatest = true
	return idx, nil
}

// Checkpoint remembers the latest time and its index. Nothing happens if the
// timeline is empty, or the latest time is checkpointed already.
func (tl *Timeline) Checkpoint() {
	if tl.offsets.NoElements() {
		return
	}
	idx := tl.offsets.Next() - 1
	if cp, ok := tl.cpts.Last(); ok && cp.Index == idx {
		return
	}
	tl.cpts.Push(Checkpoint{Time: tl.latest, Index: idx})
}

// LastCheckpoint returns the most recent checkpoint
func (tl *Timeline) LastCheckpoint() (Checkpoint, bool) {
	return tl.cpts.Last()
}

// Checkpoints returns number of checkpoints
func (tl *Timeline) Checkpoints() int {
	return tl.cpts.Len()
}

// Prune removes the times which are older than maxAge relatively to the
// latest time. The pruning is done by checkpoints: all checkpoints older
// than maxAge, except the most recent one, are removed, and the times
// before the newest removed checkpoint are removed as well. So times older
// than maxAge could stay in the timeline until the next checkpoint is old
// enough.
//
// It returns the timeline base after the operation and whether something
// was removed.
func (tl *Timeline) Prune(maxAge time.Duration) (int, bool) {
	n := tl.cpts.Len()
	if n < 2 {
		return tl.offsets.Base(), false
	}

	// checkpoints are ordered by time, so the old ones form a prefix
	cb := tl.cpts.Base()
	k := sort.Search(n-1, func(i int) bool {
		cp, _ := tl.cpts.Get(cb + i)
		return tl.latest.Sub(cp.Time) <= maxAge
	})
	if k == 0 {
		return tl.offsets.Base(), false
	}

	cp, _ := tl.cpts.Get(cb + k - 1)
	tl.cpts.Prune(cb + k)
	if cp.Index <= tl.offsets.Base() {
		return tl.offsets.Base(), false
	}
	tl.offsets.Prune(cp.Index)
	return tl.offsets.Base(), true
}

// PruneTo removes all times with index less than idx. The checkpoints which
// refer to the removed times are removed as well.
func (tl *Timeline) PruneTo(idx int) {
	tl.offsets.Prune(idx)
	it := tl.cpts.Iter()
	for cpi, cp, ok := it.Next(); ok; cpi, cp, ok = it.Next() {
		if cp.Index >= idx {
			tl.cpts.Prune(cpi)
			return
		}
	}
	tl.cpts.Prune(tl.cpts.Next())
}

// Shrink releases the unused storage
func (tl *Timeline) Shrink(slack int) {
	tl.offsets.Shrink(slack)
	tl.cpts.Shrink(0)
}

// Base returns index of the oldest time in the timeline
func (tl *Timeline) Base() int {
	return tl.offsets.Base()
}

// Next returns index the next added time will get
func (tl *Timeline) Next() int {
	return tl.offsets.Next()
}

// Len returns number of times in the timeline
func (tl *Timeline) Len() int {
	return tl.offsets.Len()
}

// Latest returns the most recently added time, even if it is pruned already.
// ok is false if nothing was added to the timeline.
func (tl *Timeline) Latest() (t time.Time, ok bool) {
	return tl.latest, tl.hasLatest
}

// TimeAt returns the time with index idx. It walks back from the latest
// time, so the cost depends on the distance from the latest time.
func (tl *Timeline) TimeAt(idx int) (time.Time, bool) {
	if idx < tl.offsets.Base() || idx >= tl.offsets.Next() {
		return time.Time{}, false
	}
	res := tl.TimesFrom(idx)
	return res[0], true
}

// TimesFrom returns times with index start or greater, the first element of
// the result corresponds to max(start, Base()).
func (tl *Timeline) TimesFrom(start int) []time.Time {
	it := tl.offsets.IterAlongBase(start)
	res := make([]time.Time, it.Len())
	t := tl.latest
	for i := len(res) - 1; i >= 0; i-- {
		_, offs, _ := it.NextBack()
		res[i] = t
		t = t.Add(-time.Duration(offs) * time.Millisecond)
	}
	return res
}

func (tl *Timeline) String() string {
	return fmt.Sprintf("Timeline{base=%d, len=%d, checkpoints=%d, latest=%s}", tl.offsets.Base(), tl.offsets.Len(), tl.cpts.Len(), tl.latest)
}
