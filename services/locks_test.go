package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTournamentLocks_SerializesSameKey(t *testing.T) {
	locks := NewTournamentLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("t1")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.size())
}

func TestTournamentLocks_IndependentKeys(t *testing.T) {
	locks := NewTournamentLocks()
	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	assert.Equal(t, 2, locks.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.size())
}
