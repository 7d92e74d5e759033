package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenter_PushAndExpire(t *testing.T) {
	clock := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
	c := NewCenter(3 * time.Second)
	c.now = func() time.Time { return clock }

	c.Push(KindSuccess, "Blender added to cart")
	clock = clock.Add(time.Second)
	c.Push(KindInfo, "second")

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "Blender added to cart", active[0].Message)
	assert.Equal(t, KindSuccess, active[0].Kind)

	// First toast expires at +3s from its push.
	clock = clock.Add(2500 * time.Millisecond)
	active = c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)

	clock = clock.Add(time.Minute)
	assert.Empty(t, c.Active())
}

func TestCenter_DefaultTTL(t *testing.T) {
	c := NewCenter(0)
	assert.Equal(t, DefaultTTL, c.ttl)

	c.Push(KindError, "boom")
	assert.Len(t, c.Active(), 1)
}
