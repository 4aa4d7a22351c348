package keylock

import (
	"hash/fnv"
	"sync"
)

const stripeCount = 64

// KeyLock serializes callers holding the same key while keeping different
// keys independent. Key mutexes are created on demand and dropped once the
// last holder releases them, so the map does not grow with key cardinality.
type KeyLock struct {
	stripes [stripeCount]stripe
}

type stripe struct {
	mu    sync.Mutex
	locks map[string]*keyMutex
}

type keyMutex struct {
	mu   sync.Mutex
	refs int
}

func New() *KeyLock {
	kl := &KeyLock{}
	for i := range kl.stripes {
		kl.stripes[i].locks = make(map[string]*keyMutex)
	}
	return kl
}

func (kl *KeyLock) Lock(key string) {
	s := kl.stripe(key)
	s.mu.Lock()
	km, ok := s.locks[key]
	if !ok {
		km = &keyMutex{}
		s.locks[key] = km
	}
	km.refs++
	s.mu.Unlock()

	km.mu.Lock()
}

func (kl *KeyLock) Unlock(key string) {
	s := kl.stripe(key)
	s.mu.Lock()
	km, ok := s.locks[key]
	if !ok {
		s.mu.Unlock()
		panic("keylock: unlock of unheld key " + key)
	}
	km.refs--
	if km.refs == 0 {
		delete(s.locks, key)
	}
	s.mu.Unlock()

	km.mu.Unlock()
}

func (kl *KeyLock) stripe(key string) *stripe {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &kl.stripes[h.Sum32()%stripeCount]
}
