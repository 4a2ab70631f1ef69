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
	"time"
)

type (

	// Lru is "Least Recently Used" container, which keeps key-value pairs in it.
	// Lru supports auto-removing discipline which can be triggered by the container
	// size, an element expiration timeout or both. It sorts stored elements
	// by their recently used time, so most recently used are stored at head
	// of the list, but auto-removing procedure works from the bottom, so it removes
	// longest not-used element first.
	//
	// Lru should be properly synchronized in case of it is used from multiple
	// goroutines.
	Lru[K comparable, V any] struct {
		head    *lruElement[K, V]
		pool    *lruElement[K, V]
		kvMap   map[K]*lruElement[K, V]
		size    int64
		maxSize int64
		maxDur  time.Duration
		cback   LruDeleteCallback[K, V]
		clock   func() time.Time
	}

	// LruValue represents a value, stored in Lru. The object is returned by
	// Lru.Get() function.
	LruValue[K comparable, V any] struct {
		size int64
		ts   time.Time
		key  K
		val  V
	}

	// LruDeleteCallback is notified when an element is pulled out of the Lru
	LruDeleteCallback[K comparable, V any] func(k K, v V)

	// LruCallback is the Lru visitor, see Iterate()
	LruCallback[K comparable, V any] func(k K, v V) bool

	lruElement[K comparable, V any] struct {
		prev *lruElement[K, V]
		next *lruElement[K, V]
		v    LruValue[K, V]
	}
)

var nilTime = time.Time{}

// NewLru creates new Lru container with maximum size maxSize, and maximum
// time 'to' an element can stay in the cache. cback is a function which is
// invoked when an element is pulled out of the cache. It can be nil
//
// Timeout 'to' could be 0, what means don't use it at all
func NewLru[K comparable, V any](maxSize int64, to time.Duration, cback LruDeleteCallback[K, V]) *Lru[K, V] {
	return NewLruWithClock(maxSize, to, cback, time.Now)
}

// NewLruWithClock same as NewLru, but allows to provide the clock function
// which is used for discovering current time.
func NewLruWithClock[K comparable, V any](maxSize int64, to time.Duration, cback LruDeleteCallback[K, V], clck func() time.Time) *Lru[K, V] {
	l := new(Lru[K, V])
	l.kvMap = make(map[K]*lruElement[K, V])
	l.maxSize = maxSize
	l.maxDur = to
	l.cback = cback
	l.clock = clck
	return l
}

// Put places new value v with the key k, considering the size of the element
// as 'size'. Some elements can be pull out from the Lru due to their timeouts
// or if the collection size will exceed the max value.
func (l *Lru[K, V]) Put(k K, v V, size int64) {
	e, ok := l.kvMap[k]
	if ok {
		// we had another element e, found by k, deleting it first
		l.delete(e, true)
	}

	tm := l.SweepByTime()
	l.sweepBySize(size)

	// avoid allocation for the element. We could have the object cached, so will
	// use it, if we have one.
	if l.pool != nil {
		e = l.pool
		l.pool = nil
	} else {
		e = new(lruElement[K, V])
	}

	e.v.key = k
	e.v.val = v
	e.v.ts = tm
	e.v.size = size
	l.head = addToHead(l.head, e)
	l.kvMap[k] = e
	l.size += size
}

// Get returns the *LruValue by its key and moves it to the head of the
// collection. The resulted value could be valid
// till ANY other call to the Lru, and its value is undefined after that.
// Please use the value as soon as you get it and never cache or pass it through
// to other functions.
func (l *Lru[K, V]) Get(k K) *LruValue[K, V] {
	ts := l.SweepByTime()
	e, ok := l.kvMap[k]
	if ok {
		l.head = removeFromList(l.head, e)
		l.head = addToHead(l.head, e)
		e.v.ts = ts
		return &e.v
	}
	return nil
}

// Peek works the same way like Get() does, but it doesn't change the element
// position in the Lru
func (l *Lru[K, V]) Peek(k K) *LruValue[K, V] {
	l.SweepByTime()
	e, ok := l.kvMap[k]
	if ok {
		return &e.v
	}
	return nil
}

// Delete removes the value by its key 'k' from the Lru. If the container has
// callbacks, it will notify listeners about the operation
func (l *Lru[K, V]) Delete(k K) {
	l.SweepByTime()
	e, ok := l.kvMap[k]
	if ok {
		l.delete(e, true)
	}
}

// DeleteNoCallback removes the value by its key 'k' from the Lru. No notifications
// will be done.
func (l *Lru[K, V]) DeleteNoCallback(k K) {
	l.SweepByTime()
	e, ok := l.kvMap[k]
	if ok {
		l.delete(e, false)
	}
}

// Clear removes all elements from the container. It will notify listeners about
// any element which is being deleted if cb == true.
func (l *Lru[K, V]) Clear(cb bool) {
	for l.head != nil {
		l.delete(l.head, cb)
	}
}

// Iterate is the container visitor which walks over the elements in LRU order.
// It calls f() for every key-value pair and continues until the f() returns false,
// or all elements are visited.
//
// Note: the modifications of the container must not allowed in the f. It means
// f MUST not use the Lru functions.
func (l *Lru[K, V]) Iterate(f LruCallback[K, V]) {
	h := l.head
	for h != nil {
		if !f(h.v.key, h.v.val) {
			break
		}
		h = h.next
		if h == l.head {
			break
		}
	}
}

// Keys returns the keys in LRU order, most recently used first
func (l *Lru[K, V]) Keys() []K {
	res := make([]K, 0, len(l.kvMap))
	l.Iterate(func(k K, _ V) bool {
		res = append(res, k)
		return true
	})
	return res
}

// Size returns current size
func (l *Lru[K, V]) Size() int64 {
	return l.size
}

// Len returns number or elements that are in the container
func (l *Lru[K, V]) Len() int {
	return len(l.kvMap)
}

// SweepByTime walks trhough the container values and removes that are expired
func (l *Lru[K, V]) SweepByTime() time.Time {
	if l.maxDur == 0 {
		return nilTime
	}
	tm := l.clock()
	for l.head != nil && tm.Sub(l.head.prev.v.ts) > l.maxDur {
		last := l.head.prev
		l.delete(last, true)
	}
	return tm
}

func (l *Lru[K, V]) sweepBySize(addSize int64) {
	for l.head != nil && l.size+addSize > l.maxSize {
		last := l.head.prev
		l.delete(last, true)
	}
}

func (l *Lru[K, V]) delete(e *lruElement[K, V], cb bool) {
	l.head = removeFromList(l.head, e)
	l.size -= e.v.size
	l.pool = e
	delete(l.kvMap, e.v.key)
	if cb && l.cback != nil {
		l.cback(e.v.key, e.v.val)
	}
	var k K
	var v V
	e.v.key = k
	e.v.val = v
}

func removeFromList[K comparable, V any](head, e *lruElement[K, V]) *lruElement[K, V] {
	if e == head && head.next == head {
		head = nil
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	if e == head {
		head = e.next
	}
	return head
}

// add n to list with head and returns new head
func addToHead[K comparable, V any](head *lruElement[K, V], n *lruElement[K, V]) *lruElement[K, V] {
	if n == nil {
		return head
	}
	if head == nil {
		n.prev = n
		n.next = n
		return n
	}
	n.next = head
	n.prev = head.prev
	head.prev = n
	n.prev.next = n
	return n
}

func (v *LruValue[K, V]) Key() K {
	return v.key
}

func (v *LruValue[K, V]) Val() V {
	return v.val
}

func (v *LruValue[K, V]) Size() int64 {
	return v.size
}

func (v *LruValue[K, V]) TouchedAt() time.Time {
	return v.ts
}
