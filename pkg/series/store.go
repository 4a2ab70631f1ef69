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

package series

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jrivets/log4g"
	"github.com/logrange/slider/pkg/container"
	"github.com/logrange/slider/pkg/timeline"
	"github.com/pkg/errors"
)

type (
	// Store keeps named series of samples. All series share one timeline:
	// every Add() call creates a new timeline entry, and samples passed to
	// the call are stored in their series with the entry index. A series
	// which has no sample for an entry has a break there.
	//
	// Old entries are pruned by age, and all series are pruned to the same
	// index, so the series can be walked together (see Walk()).
	//
	// The Store is safe for concurrent use.
	Store struct {
		Config *Config `inject:""`

		logger  log4g.Logger
		lock    sync.Mutex
		clock   func() time.Time
		tl      *timeline.Timeline
		series  *container.Lru[string, *container.Sparse[float64]]
		dropped int64
		evicted int64
		done    bool
	}

	// Row is one timeline entry with the values of the walked series.
	// Values[i] is meaningful only if Present[i] is true.
	Row struct {
		Index   int
		Time    time.Time
		Values  []float64
		Present []bool
	}

	// WalkF is called by Walk for every row. The row is valid only within
	// the call. Returning false stops the walk.
	WalkF func(r *Row) bool

	// Stats contains the Store counters
	Stats struct {
		Series      int
		Samples     int
		Times       int
		Base        int
		Next        int
		Checkpoints int
		Dropped     int64
		Evicted     int64
	}
)

// NewStore creates new Store. The Config must be injected, or the default
// one is used, then Init() must be called before using the store.
func NewStore() *Store {
	s := new(Store)
	s.logger = log4g.GetLogger("series.store")
	s.clock = time.Now
	return s
}

// NewStoreWithConfig creates new Store with a copy of cfg
func NewStoreWithConfig(cfg Config) *Store {
	s := NewStore()
	s.Config = cfg.Clone()
	return s
}

// Init checks the configuration and allocates the store structures
func (s *Store) Init(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Config == nil {
		s.Config = GetDefaultConfig()
	}
	if err := s.Config.Check(); err != nil {
		return errors.Wrapf(err, "wrong store configuration")
	}

	s.logger.Info("Initializing with ", s.Config)
	s.tl = timeline.New(s.Config.Reserve)
	s.series = container.NewLruWithClock[string, *container.Sparse[float64]](int64(s.Config.MaxSeries), s.Config.SeriesTTL(), s.onEvict, s.clock)
	s.done = false
	return nil
}

// Shutdown releases the store data. All calls after that return ErrShutdown,
// or empty results.
func (s *Store) Shutdown() {
	s.logger.Info("Shutting down")

	s.lock.Lock()
	defer s.lock.Unlock()
	s.done = true
	if s.series != nil {
		s.series.Clear(false)
	}
}

// Add stores samples with time ts. It returns the timeline index assigned to
// ts. ts must not be before the time of the previous Add() call.
//
// A sample is dropped, if its series reached the SeriesCapacity. Dropped
// samples don't cause the error, they are counted in Stats.
func (s *Store) Add(ts time.Time, samples map[string]float64) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.checkState(); err != nil {
		return -1, err
	}

	idx, err := s.tl.Add(ts)
	if err != nil {
		return -1, errors.Wrapf(err, "could not add samples for %s", ts)
	}

	for name, v := range samples {
		var sp *container.Sparse[float64]
		if lv := s.series.Get(name); lv != nil {
			sp = lv.Val()
		} else {
			sp = container.NewSparse[float64](idx, s.Config.SeriesCapacity)
			s.series.Put(name, sp, 1)
			s.logger.Debug("New series ", name, " starts from ", idx)
		}

		if err := sp.PushAt(idx, v); err != nil {
			s.dropped++
			s.logger.Debug("Sample for ", name, " at ", idx, " is dropped, err=", err)
		}
	}

	if s.checkpoint(ts) {
		s.prune()
	}
	return idx, nil
}

// Prune removes the samples older than MaxAgeSec. It returns the first index
// the store keeps after the operation.
func (s *Store) Prune() (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.checkState(); err != nil {
		return -1, err
	}
	return s.prune(), nil
}

// PruneTo removes all samples with index less than idx
func (s *Store) PruneTo(idx int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.checkState(); err != nil {
		return err
	}
	s.tl.PruneTo(idx)
	s.pruneSeries(s.tl.Base())
	return nil
}

// Get returns value of the series name with index idx
func (s *Store) Get(name string, idx int) (float64, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.checkState() != nil {
		return 0, false
	}
	lv := s.series.Peek(name)
	if lv == nil {
		return 0, false
	}
	return lv.Val().Get(idx)
}

// Names returns the sorted list of the series names
func (s *Store) Names() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.checkState() != nil {
		return nil
	}
	res := s.series.Keys()
	sort.Strings(res)
	return res
}

// Stats returns the store counters
func (s *Store) Stats() Stats {
	s.lock.Lock()
	defer s.lock.Unlock()

	var st Stats
	st.Dropped = s.dropped
	st.Evicted = s.evicted
	if s.checkState() != nil {
		return st
	}

	st.Series = s.series.Len()
	st.Times = s.tl.Len()
	st.Base = s.tl.Base()
	st.Next = s.tl.Next()
	st.Checkpoints = s.tl.Checkpoints()
	s.series.Iterate(func(_ string, sp *container.Sparse[float64]) bool {
		st.Samples += sp.Len()
		return true
	})
	return st
}

// Walk calls fn for the timeline entries, starting from the first index all
// the named series have a value for, in ascending order. ErrSeriesNotFound
// is returned if a series is not in the store.
//
// The store is locked during the walk, so fn must not call the store.
func (s *Store) Walk(names []string, fn WalkF) error {
	return s.walk(-1, names, fn)
}

// WalkFrom works like Walk, but it starts from the index start, or from the
// oldest timeline entry if start is less than that.
func (s *Store) WalkFrom(start int, names []string, fn WalkF) error {
	if start < 0 {
		start = 0
	}
	return s.walk(start, names, fn)
}

func (s *Store) walk(start int, names []string, fn WalkF) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.checkState(); err != nil {
		return err
	}

	sps := make([]*container.Sparse[float64], len(names))
	base := s.tl.Base()
	for i, name := range names {
		lv := s.series.Peek(name)
		if lv == nil {
			return errors.Wrapf(ErrSeriesNotFound, "series %s", name)
		}
		sps[i] = lv.Val()
		if b := sps[i].Base(); start < 0 && b > base {
			base = b
		}
	}
	if start > base {
		base = start
	}

	its := make([]*container.SparseIterator[float64], len(sps))
	heads := make([]walkHead, len(sps))
	for i, sp := range sps {
		its[i] = sp.IterAlongBase(base)
		heads[i].next(its[i])
	}

	row := &Row{Values: make([]float64, len(sps)), Present: make([]bool, len(sps))}
	times := s.tl.TimesFrom(base)
	first := s.tl.Next() - len(times)
	for k, tm := range times {
		row.Index = first + k
		row.Time = tm
		for i := range heads {
			h := &heads[i]
			for h.ok && h.idx < row.Index {
				h.next(its[i])
			}
			if h.ok && h.idx == row.Index {
				row.Values[i] = h.v
				row.Present[i] = true
				h.next(its[i])
			} else {
				row.Values[i] = 0
				row.Present[i] = false
			}
		}
		if !fn(row) {
			break
		}
	}
	return nil
}

func (s *Store) String() string {
	st := s.Stats()
	return fmt.Sprintf("{series=%d, samples=%d, times=%d, base=%d, dropped=%d, evicted=%d}",
		st.Series, st.Samples, st.Times, st.Base, st.Dropped, st.Evicted)
}

type walkHead struct {
	idx int
	v   float64
	ok  bool
}

func (h *walkHead) next(it *container.SparseIterator[float64]) {
	h.idx, h.v, h.ok = it.Next()
}

// checkpoint creates a timeline checkpoint if the last one is older than
// CheckpointSec. Returns true if a checkpoint was created.
func (s *Store) checkpoint(ts time.Time) bool {
	if s.Config.CheckpointSec <= 0 {
		return false
	}
	if cp, ok := s.tl.LastCheckpoint(); ok && ts.Sub(cp.Time) < s.Config.CheckpointInterval() {
		return false
	}
	s.tl.Checkpoint()
	return true
}

func (s *Store) prune() int {
	if s.Config.MaxAgeSec <= 0 {
		return s.tl.Base()
	}
	base, ok := s.tl.Prune(s.Config.MaxAge())
	if ok {
		s.pruneSeries(base)
	}
	return base
}

// pruneSeries prunes all series to base, empty series are removed
func (s *Store) pruneSeries(base int) {
	var empty []string
	slack := s.Config.ShrinkSlack
	s.series.Iterate(func(name string, sp *container.Sparse[float64]) bool {
		sp.Prune(base)
		if sp.NoElements() {
			empty = append(empty, name)
		} else if slack >= 0 {
			sp.Shrink(slack)
		}
		return true
	})
	for _, name := range empty {
		s.series.DeleteNoCallback(name)
	}
	if slack >= 0 {
		s.tl.Shrink(slack)
	}
	s.logger.Debug("Pruned to ", base, ", ", len(empty), " empty series removed")
}

func (s *Store) onEvict(name string, sp *container.Sparse[float64]) {
	s.evicted++
	s.logger.Info("Series ", name, " with ", sp.Len(), " samples is evicted")
}

func (s *Store) checkState() error {
	if s.done {
		return ErrShutdown
	}
	if s.tl == nil {
		return ErrNotInitialized
	}
	return nil
}
