package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitiateLimiter_BurstThenRefill(t *testing.T) {
	rl := NewInitiateLimiter(1, 2)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("customer:1"))
	assert.True(t, rl.Allow("customer:1"))
	assert.False(t, rl.Allow("customer:1"), "burst exhausted")
	assert.True(t, rl.Allow("customer:2"), "identities are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("customer:1"), "one token refilled")
	assert.False(t, rl.Allow("customer:1"))
}

func TestInitiateLimiter_PrunesIdleBuckets(t *testing.T) {
	rl := NewInitiateLimiter(1, 1)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("customer:1")
	rl.Allow("customer:2")
	assert.Equal(t, 2, rl.Len())

	now = now.Add(limiterIdleTTL + time.Second)
	rl.Allow("customer:3")
	assert.Equal(t, 1, rl.Len())
}
