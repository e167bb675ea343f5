package bot

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultGateCapacity is how many devices may use the control channel at once
const DefaultGateCapacity = 4

// Gate is the shared counting gate around every capture and tap sequence
type Gate struct {
	sem      *semaphore.Weighted
	capacity int64

	mu       sync.Mutex
	inUse    int64
	peak     int64
	acquired int64
}

// NewGate creates a gate admitting capacity holders. Non-positive
// capacities use DefaultGateCapacity.
func NewGate(capacity int) *Gate {
	if capacity <= 0 {
		capacity = DefaultGateCapacity
	}
	return &Gate{sem: semaphore.NewWeighted(int64(capacity)), capacity: int64(capacity)}
}

// Acquire blocks until a slot is free or ctx ends
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.mu.Lock()
	g.inUse++
	g.acquired++
	if g.inUse > g.peak {
		g.peak = g.inUse
	}
	g.mu.Unlock()
	return nil
}

// Release frees a slot
func (g *Gate) Release() {
	g.mu.Lock()
	g.inUse--
	g.mu.Unlock()
	g.sem.Release(1)
}

// Capacity returns the gate size
func (g *Gate) Capacity() int {
	return int(g.capacity)
}

// InUse returns the number of current holders
func (g *Gate) InUse() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int(g.inUse)
}

// Peak returns the highest number of simultaneous holders seen
func (g *Gate) Peak() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int(g.peak)
}

// Acquired returns the total number of successful acquisitions
func (g *Gate) Acquired() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int(g.acquired)
}
