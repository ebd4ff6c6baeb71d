package ingest

import "sync"

// poolLocks serializes plan processing per pool inside this process. The
// distributed lock in the consumer covers other processes; this covers
// concurrent worker goroutines within one, without the round trip.
type poolLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPoolLocks() *poolLocks {
	return &poolLocks{locks: make(map[string]*sync.Mutex)}
}

// get returns the mutex for a pool, creating it on first use. Pool count is
// small and stable, so entries are never evicted.
func (p *poolLocks) get(poolID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.locks[poolID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[poolID] = l
	}
	return l
}
