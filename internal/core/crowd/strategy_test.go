package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"", StrategyInherit},
		{"inherit", StrategyInherit},
		{"none", StrategyDirect},
		{"Direct", StrategyDirect},
		{"simple", StrategyHardStop},
		{" hard-stop ", StrategyHardStop},
		{"deviation", StrategyLateralDeviation},
		{"lateral", StrategyLateralDeviation},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseStrategy("teleport")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestStrategyYAML(t *testing.T) {
	var cfg struct {
		Strategy Strategy `yaml:"strategy"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("strategy: simple\n"), &cfg))
	assert.Equal(t, StrategyHardStop, cfg.Strategy)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "strategy: hard-stop\n", string(out))

	assert.Error(t, yaml.Unmarshal([]byte("strategy: fly\n"), &cfg))

	_, err = Strategy(42).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Equal(t, "strategy(42)", Strategy(42).String())
}
