package pipeline

import "sync"

// DuplicationGate serializes stage steps per message id. A mutex is created
// on first use of a key and retained for the process lifetime. Combined with
// idempotent writes this converts the bus's at-least-once delivery into an
// at-most-once business effect.
type DuplicationGate struct {
	locks sync.Map
}

// NewDuplicationGate creates an empty gate.
func NewDuplicationGate() *DuplicationGate {
	return &DuplicationGate{}
}

// WithLock runs fn while holding the mutex scoped to key. The mutex is
// released on every exit path, including when fn returns an error.
func (g *DuplicationGate) WithLock(key string, fn func() error) error {
	value, _ := g.locks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)

	mu.Lock()
	defer mu.Unlock()
	return fn()
}
