package app

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutSupervisor_Fires(t *testing.T) {
	s := NewTimeoutSupervisor(20 * time.Millisecond)
	var fired atomic.Int32
	s.Arm("B1", "call-1", func() { fired.Add(1) })
	assert.Equal(t, 1, s.Pending())

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, s.Pending())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "fires exactly once")
}

func TestTimeoutSupervisor_Disarm(t *testing.T) {
	s := NewTimeoutSupervisor(20 * time.Millisecond)
	var fired atomic.Int32
	s.Arm("B1", "call-1", func() { fired.Add(1) })

	assert.True(t, s.Disarm("B1"))
	assert.False(t, s.Disarm("B1"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimeoutSupervisor_RearmReplacesStaleTimer(t *testing.T) {
	s := NewTimeoutSupervisor(30 * time.Millisecond)
	var first, second atomic.Int32
	s.Arm("B1", "call-1", func() { first.Add(1) })
	s.Arm("B1", "call-2", func() { second.Add(1) })
	assert.Equal(t, 1, s.Pending())

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestTimeoutSupervisor_Stop(t *testing.T) {
	s := NewTimeoutSupervisor(20 * time.Millisecond)
	var fired atomic.Int32
	s.Arm("B1", "call-1", func() { fired.Add(1) })
	s.Arm("B2", "call-2", func() { fired.Add(1) })
	s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 0, s.Pending())
}
