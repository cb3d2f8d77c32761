package testutil

import (
	"sort"
	"sync"
)

// Counter records how often each task body ran and how many ran at once.
type Counter struct {
	mu      sync.Mutex
	runs    map[string]int
	order   []string
	active  int
	maxSeen int
}

func NewCounter() *Counter {
	return &Counter{runs: make(map[string]int)}
}

// Enter records the start of a run of name.
func (c *Counter) Enter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[name]++
	c.order = append(c.order, name)
	c.active++
	if c.active > c.maxSeen {
		c.maxSeen = c.active
	}
}

// Leave records the end of a run.
func (c *Counter) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active--
}

// Count returns how many times name ran.
func (c *Counter) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[name]
}

// Total returns the number of runs across all names.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Order returns the names in the order their runs started.
func (c *Counter) Order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Names returns the distinct names that ran, sorted.
func (c *Counter) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.runs))
	for n := range c.runs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MaxConcurrent returns the highest number of overlapping runs seen.
func (c *Counter) MaxConcurrent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxSeen
}
