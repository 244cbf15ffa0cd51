package watchdog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnceJobsAndChecks(t *testing.T) {
	w := NewWatchdog(time.Hour)

	var sweeps int
	w.Every("sweep", func() { sweeps++ })
	w.Every("broken", func() { panic("boom") })

	var gatewayErr error
	w.RegisterComponent("gateway", func() error { return gatewayErr })

	var changes []bool
	w.OnChange(func(healthy bool) { changes = append(changes, healthy) })

	w.RunOnce()
	assert.Equal(t, 1, sweeps)
	assert.True(t, w.Healthy())
	assert.Empty(t, changes)

	gatewayErr = errors.New("no heartbeat ack")
	w.RunOnce()
	w.RunOnce()
	assert.Equal(t, 3, sweeps)
	assert.False(t, w.Healthy())
	assert.False(t, w.IsHealthy("gateway"))
	assert.Equal(t, []bool{false}, changes)

	gatewayErr = nil
	w.RunOnce()
	assert.True(t, w.Healthy())
	assert.Equal(t, map[string]bool{"gateway": true}, w.GetStatus())
	assert.Equal(t, []bool{false, true}, changes)

	assert.False(t, w.IsHealthy("unknown"))
}

func TestStartStop(t *testing.T) {
	w := NewWatchdog(5 * time.Millisecond)
	ran := make(chan struct{}, 1)
	w.Every("tick", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	})

	w.Start()
	w.Start()
	select {
	case <-ran:
	case <-time.After(time.Second):
		require.FailNow(t, "job never ran")
	}
	w.Stop()
	w.Stop()
}
