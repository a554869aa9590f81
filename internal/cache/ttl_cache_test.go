package cache

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	c.Set("b", 2, -time.Second)
	_, ok = c.Get("b")
	assert.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCaptureResolverCache(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	c := NewCaptureResolverCache()
	id := node.Generate()

	_, ok := c.GetMeter(id)
	assert.False(t, ok)

	meter := &meterdomain.Meter{ID: id, Serial: "ELEC-0001"}
	c.SetMeter(id, meter)

	got, ok := c.GetMeter(id)
	require.True(t, ok)
	assert.Equal(t, "ELEC-0001", got.Serial)

	c.InvalidateMeter(id)
	_, ok = c.GetMeter(id)
	assert.False(t, ok)
}
