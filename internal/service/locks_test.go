package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := NewKeyedMutex()
	storeID, productID := uuid.New(), uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(storeID, productID)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locks := NewKeyedMutex()
	storeID := uuid.New()
	productA, productB := uuid.New(), uuid.New()

	unlockA := locks.Lock(storeID, productA)
	defer unlockA()

	// A held lock on one pair must not block another pair.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(storeID, productB)
		unlockB()
		close(done)
	}()
	<-done
}
