package tripface

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the source of random draws used for sampling,
// shuffling, and augmentation.
//
// *rand.Rand satisfies this interface, as does the value
// returned by NewLockedRand.
type Rand interface {
	Intn(n int) int
	Float64() float64
	Perm(n int) []int
}

// LockedRand is a Rand which is safe to use from multiple
// goroutines at once.
type LockedRand struct {
	lock sync.Mutex
	rand *rand.Rand
}

// NewLockedRand creates a LockedRand seeded with seed.
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{rand: rand.New(rand.NewSource(seed))}
}

// NewTimeRand creates a LockedRand seeded with the current
// time.
func NewTimeRand() *LockedRand {
	return NewLockedRand(time.Now().UnixNano())
}

// Intn returns a uniform integer in [0, n).
func (l *LockedRand) Intn(n int) int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.rand.Intn(n)
}

// Float64 returns a uniform number in [0, 1).
func (l *LockedRand) Float64() float64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.rand.Float64()
}

// Perm returns a random permutation of [0, n).
func (l *LockedRand) Perm(n int) []int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.rand.Perm(n)
}
