package memory

import (
	"context"
	"sync"
)

// KeyedMutex serialises slug assignment per base slug inside one process.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until base is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, base string) (func(), error) {
	k.mu.Lock()
	entry, ok := k.locks[base]
	if !ok {
		entry = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[base] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(base, entry, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(base, entry, true) })
	}, nil
}

func (k *KeyedMutex) release(base string, entry *keyedEntry, held bool) {
	if held {
		<-entry.ch
	}
	k.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, base)
	}
	k.mu.Unlock()
}
