// Package cache provides the in-process caches owned by the services. Every
// cache is an explicit object with a size bound and a TTL; there are no
// package-level instances.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	key       string
	value     V
	freq      int
	expiresAt time.Time
	prev      *entry[V]
	next      *entry[V]
}

// freqList holds the entries sharing one hit count, most recent first.
type freqList[V any] struct {
	head *entry[V]
	tail *entry[V]
	size int
}

func newFreqList[V any]() *freqList[V] {
	l := &freqList[V]{head: &entry[V]{}, tail: &entry[V]{}}
	l.head.next = l.tail
	l.tail.prev = l.head
	return l
}

func (l *freqList[V]) pushFront(e *entry[V]) {
	e.prev = l.head
	e.next = l.head.next
	l.head.next.prev = e
	l.head.next = e
	l.size++
}

func (l *freqList[V]) remove(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	l.size--
}

func (l *freqList[V]) back() *entry[V] {
	if l.size == 0 {
		return nil
	}
	return l.tail.prev
}

// Stats reports cache effectiveness.
type Stats struct {
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// LFU is a size-bounded cache that evicts the least frequently hit entry,
// breaking ties by least recent use. Entries expire lazily after the TTL.
// It is safe for concurrent use.
type LFU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	entries map[string]*entry[V]
	freqs   map[int]*freqList[V]
	minFreq int

	hits, misses, evictions int64
}

// NewLFU creates a cache holding at most maxSize entries for ttl each.
// Non-positive arguments fall back to 1000 entries and 5 minutes.
func NewLFU[V any](maxSize int, ttl time.Duration) *LFU[V] {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LFU[V]{
		capacity: maxSize,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*entry[V], maxSize),
		freqs:    make(map[int]*freqList[V]),
	}
}

// Get returns the value for key and counts a hit against it.
func (c *LFU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.removeEntry(e)
		c.misses++
		return zero, false
	}

	c.touch(e)
	c.hits++
	return e.value, true
}

// Set stores value under key, evicting the least frequently used entry when
// the cache is full. Updating an existing key counts as a use.
func (c *LFU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.touch(e)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evict()
	}

	e := &entry[V]{key: key, value: value, freq: 1, expiresAt: expiresAt}
	c.listFor(1).pushFront(e)
	c.entries[key] = e
	c.minFreq = 1
}

// Delete removes key. It reports whether the key was present.
func (c *LFU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok {
		c.removeEntry(e)
	}
	return ok
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed.
func (c *LFU[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(e)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included until
// they are next touched.
func (c *LFU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Frequency returns the hit count of key, or 0 when absent.
func (c *LFU[V]) Frequency(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.freq
	}
	return 0
}

// Stats returns a snapshot of the cache counters.
func (c *LFU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Purge drops every entry and resets the counters.
func (c *LFU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V], c.capacity)
	c.freqs = make(map[int]*freqList[V])
	c.minFreq = 0
	c.hits, c.misses, c.evictions = 0, 0, 0
}

func (c *LFU[V]) listFor(freq int) *freqList[V] {
	l, ok := c.freqs[freq]
	if !ok {
		l = newFreqList[V]()
		c.freqs[freq] = l
	}
	return l
}

func (c *LFU[V]) touch(e *entry[V]) {
	old := c.freqs[e.freq]
	old.remove(e)
	if old.size == 0 {
		delete(c.freqs, e.freq)
		if c.minFreq == e.freq {
			c.minFreq++
		}
	}
	e.freq++
	c.listFor(e.freq).pushFront(e)
}

// evict drops the least recently used entry of the lowest frequency.
func (c *LFU[V]) evict() {
	l, ok := c.freqs[c.minFreq]
	if !ok {
		c.recomputeMinFreq()
		if l, ok = c.freqs[c.minFreq]; !ok {
			return
		}
	}
	if victim := l.back(); victim != nil {
		c.removeEntry(victim)
		c.evictions++
	}
}

func (c *LFU[V]) removeEntry(e *entry[V]) {
	if l, ok := c.freqs[e.freq]; ok {
		l.remove(e)
		if l.size == 0 {
			delete(c.freqs, e.freq)
			if c.minFreq == e.freq {
				c.recomputeMinFreq()
			}
		}
	}
	delete(c.entries, e.key)
}

func (c *LFU[V]) recomputeMinFreq() {
	c.minFreq = 0
	for f := range c.freqs {
		if c.minFreq == 0 || f < c.minFreq {
			c.minFreq = f
		}
	}
}
