package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, PrintOrder, cfg.Log.PrintType)
	assert.Equal(t, StrategyVerbose, cfg.Log.Strategy)
	assert.Equal(t, OverflowDropNewest, cfg.OperationLog.Overflow)
	assert.True(t, cfg.OperationLog.Enable)
	assert.Equal(t, "token", cfg.JWT.TokenName)
	assert.Contains(t, cfg.Log.ExcludePaths, "/health")
}

func TestDecodeNormalizesEnums(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("log.print_type", " merge ")
	v.Set("operation_log.overflow", "DROP_OLDEST")

	cfg, err := decode(v)
	require.NoError(t, err)
	assert.Equal(t, PrintMerge, cfg.Log.PrintType)
	assert.Equal(t, OverflowDropOldest, cfg.OperationLog.Overflow)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cases := map[string]func(*Config){
		"print type": func(c *Config) { c.Log.PrintType = "SIDEWAYS" },
		"strategy":   func(c *Config) { c.Log.Strategy = "loud" },
		"overflow":   func(c *Config) { c.OperationLog.Overflow = "spill" },
		"queue":      func(c *Config) { c.OperationLog.QueueSize = 0 },
		"workers":    func(c *Config) { c.OperationLog.Workers = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
