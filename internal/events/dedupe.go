package events

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// dedupe remembers recently handled event ids so redeliveries after a
// rebalance are handled once.
type dedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, struct{}]
}

func newDedupe(size int) *dedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, struct{}](size)
	return &dedupe{lru: c}
}

// firstSeen returns true the first time id is offered.
func (d *dedupe) firstSeen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lru.Contains(id) {
		return false
	}
	d.lru.Add(id, struct{}{})
	return true
}

// forget drops id so a failed handling can be retried.
func (d *dedupe) forget(id string) {
	d.mu.Lock()
	d.lru.Remove(id)
	d.mu.Unlock()
}
