package rangelock

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config controls the lock manager's only tunables (spec §6): the depth
// bound on deadlock-chain walks and a diagnostic verbosity flag that
// affects no semantics. BlockingTimeout is an ambient addition — the
// context.Context a caller supplies to SetLock for a blocking request is
// expected to carry this as its deadline; it is not enforced internally.
type Config struct {
	// MaxDeadlockDepth bounds the wait-for chain walk (spec §4.4a, §8 P7).
	MaxDeadlockDepth int `mapstructure:"max_deadlock_depth" yaml:"max_deadlock_depth"`

	// Debug toggles diagnostic logging; it never changes behavior.
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// BlockingTimeout is the recommended deadline for a blocking
	// set_lock call, applied by the caller via context.WithTimeout.
	BlockingTimeout time.Duration `mapstructure:"blocking_timeout" yaml:"blocking_timeout"`
}

// DefaultConfig returns a Config with the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxDeadlockDepth: 50,
		Debug:            false,
		BlockingTimeout:  60 * time.Second,
	}
}

func (c Config) validate() error {
	if c.MaxDeadlockDepth <= 0 {
		return fmt.Errorf("rangelock: max_deadlock_depth must be positive, got %d", c.MaxDeadlockDepth)
	}
	return nil
}

// LoadConfig reads lock-manager configuration from the given viper
// instance (already pointed at a config file and/or environment prefix by
// the caller), applying DefaultConfig for any unset fields.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if v == nil {
		return cfg, nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("rangelock: failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
