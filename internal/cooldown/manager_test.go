package cooldown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdmitWindow(t *testing.T) {
	assert := assert.New(t)
	clock := NewManualClock()
	m := NewManager(clock)

	assert.True(m.Admit("g", "u", 10))
	assert.False(m.Admit("g", "u", 10))

	clock.Advance(9 * time.Second)
	assert.False(m.Admit("g", "u", 10))
	assert.Equal(time.Second, m.Remaining("g", "u"))

	clock.Advance(time.Second)
	assert.True(m.Admit("g", "u", 10))
}

func TestRejectedAttemptsDoNotExtendWindow(t *testing.T) {
	clock := NewManualClock()
	m := NewManager(clock)

	assert.True(t, m.Admit("g", "u", 10))
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		assert.False(t, m.Admit("g", "u", 10))
	}
	clock.Advance(5 * time.Second)
	assert.True(t, m.Admit("g", "u", 10))
}

func TestZeroCooldownKeepsNoState(t *testing.T) {
	m := NewManager(NewManualClock())

	for i := 0; i < 3; i++ {
		assert.True(t, m.Admit("g", "u", 0))
	}
	assert.Equal(t, 0, m.Len())
	assert.Zero(t, m.Remaining("g", "u"))
}

func TestKeysAreIndependent(t *testing.T) {
	m := NewManager(NewManualClock())

	assert.True(t, m.Admit("g1", "u", 60))
	assert.True(t, m.Admit("g2", "u", 60))
	assert.True(t, m.Admit("g1", "v", 60))
	assert.False(t, m.Admit("g1", "u", 60))
}

func TestClear(t *testing.T) {
	m := NewManager(NewManualClock())

	m.Admit("g", "u", 60)
	m.Admit("g", "v", 60)
	m.Admit("h", "u", 60)

	m.Clear("g", "u")
	m.Clear("g", "missing")
	m.Clear("missing", "u")
	assert.True(t, m.Admit("g", "u", 60))
	assert.False(t, m.Admit("g", "v", 60))

	m.ClearAll("g")
	m.ClearAll("missing")
	assert.True(t, m.Admit("g", "v", 60))
	assert.False(t, m.Admit("h", "u", 60))
}

func TestSweep(t *testing.T) {
	clock := NewManualClock()
	m := NewManager(clock)

	m.Admit("g", "short", 5)
	m.Admit("g", "long", 50)
	clock.Advance(10 * time.Second)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestConcurrentAdmitSingleWinner(t *testing.T) {
	m := NewManager(NewManualClock())

	var admitted int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Admit("g", "u", 30) {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted)
}

func TestMonotonicClockAdvances(t *testing.T) {
	c := NewMonotonicClock()
	a := c.Now()
	time.Sleep(time.Millisecond)
	assert.Greater(t, c.Now(), a)
}
