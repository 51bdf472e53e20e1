package service

import (
	"sync"

	"github.com/google/uuid"
)

// KeyedMutex serializes all mutating stock operations per (store, product)
// pair. Lost updates to quantity/reserved under concurrent arrivals, losses
// and transfer reservations are a correctness issue, so every write path
// must go through the same instance.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given pair and returns its unlock func.
func (k *KeyedMutex) Lock(storeID, productID uuid.UUID) func() {
	key := storeID.String() + "/" + productID.String()

	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
