package rangelock

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	assert.Equal(t, 50, cfg.MaxDeadlockDepth)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 60*time.Second, cfg.BlockingTimeout)
}

func TestConfig_Validate_RejectsNonPositiveDepth(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxDeadlockDepth = 0
	assert.Error(t, cfg.validate())

	cfg.MaxDeadlockDepth = -1
	assert.Error(t, cfg.validate())
}

func TestLoadConfig_NilViperReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_OverridesFromViper(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("max_deadlock_depth", 10)
	v.Set("debug", true)
	v.Set("blocking_timeout", 5*time.Second)

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxDeadlockDepth)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.BlockingTimeout)
}

func TestLoadConfig_RejectsInvalidDepth(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("max_deadlock_depth", -5)

	_, err := LoadConfig(v)
	assert.Error(t, err)
}
