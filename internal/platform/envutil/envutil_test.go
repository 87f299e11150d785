package envutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReaders(t *testing.T) {
	t.Setenv("GAMMA_T_STR", " value ")
	t.Setenv("GAMMA_T_INT", "42")
	t.Setenv("GAMMA_T_BAD", "nope")
	t.Setenv("GAMMA_T_BOOL", "yes")
	t.Setenv("GAMMA_T_SECS", "30")
	t.Setenv("GAMMA_T_LIST", "a, ,b,c ")

	assert.Equal(t, "value", String("GAMMA_T_STR", "def"))
	assert.Equal(t, "def", String("GAMMA_T_MISSING", "def"))
	assert.Equal(t, 42, Int("GAMMA_T_INT", 1))
	assert.Equal(t, 1, Int("GAMMA_T_BAD", 1))
	assert.Equal(t, int64(42), Int64("GAMMA_T_INT", 0))
	assert.Equal(t, 42.0, Float("GAMMA_T_INT", 0))
	assert.Equal(t, 0.5, Float("GAMMA_T_BAD", 0.5))
	assert.True(t, Bool("GAMMA_T_BOOL", false))
	assert.True(t, Bool("GAMMA_T_BAD", true))
	assert.Equal(t, 30*time.Second, Seconds("GAMMA_T_SECS", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, List("GAMMA_T_LIST", nil))
}
