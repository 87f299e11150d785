package redis

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsamf/gamma/internal/platform/logger"
)

func TestNoopGuard(t *testing.T) {
	g := NoopGuard()
	for i := 0; i < 2; i++ {
		ok, err := g.FirstSeen(t.Context(), "same")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.NoError(t, g.Forget(t.Context(), "same"))
	assert.NoError(t, g.Close())
}

func TestNewDeliveryGuardRequiresAddr(t *testing.T) {
	_, err := NewDeliveryGuard(Options{}, logger.Nop())
	assert.Error(t, err)
}

func TestDeliveryGuardRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	g, err := NewDeliveryGuard(Options{Addr: addr, KeyPrefix: "gamma:test:", TTL: time.Minute}, logger.Nop())
	require.NoError(t, err)
	defer g.Close()

	id := uuid.NewString()
	first, err := g.FirstSeen(t.Context(), id)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := g.FirstSeen(t.Context(), id)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, g.Forget(t.Context(), id))
	retry, err := g.FirstSeen(t.Context(), id)
	require.NoError(t, err)
	assert.True(t, retry)
}
