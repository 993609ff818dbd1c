package world

import (
	"path/filepath"
	"sync"
)

// pathLock hands out try-locks keyed on a filesystem path. It serializes
// mutations of one artifact root without queueing: a second caller fails
// fast instead of waiting for the holder.
type pathLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newPathLock() *pathLock {
	return &pathLock{
		held: make(map[string]struct{}),
	}
}

// TryAcquire takes the lock for path. It returns false immediately when
// another holder has it.
func (p *pathLock) TryAcquire(path string) bool {
	key := filepath.Clean(path)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, taken := p.held[key]; taken {
		return false
	}
	p.held[key] = struct{}{}
	return true
}

// Release frees the lock for path. Releasing an unheld path is a no-op.
func (p *pathLock) Release(path string) {
	key := filepath.Clean(path)

	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.held, key)
}
