package log

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/crowdnav/pkg/geom"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return Wrap(zap.New(core), level), logs
}

func TestLoggerLevels(t *testing.T) {
	l, logs := observed(LevelInfo)
	l.Debug("hidden")
	l.Info("shown")
	l.SetLevel(LevelDebug)
	l.Debug("now shown")
	assert.Equal(t, LevelDebug, l.GetLevel())

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
	assert.Equal(t, "now shown", logs.All()[1].Message)
}

func TestDomainFields(t *testing.T) {
	l, logs := observed(LevelDebug)
	id := uuid.New()
	l.With(Room("simple")).Info("agent spawned",
		AgentID(id),
		Vector("position", geom.V(1.5, 2)),
		Strategy(stringer("deviation")),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "simple", ctx["room"])
	assert.Equal(t, id.String(), ctx["agent_id"])
	assert.Equal(t, map[string]any{"x": 1.5, "y": 2.0}, ctx["position"])
	assert.Equal(t, "deviation", ctx["strategy"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestWithContextAddsTick(t *testing.T) {
	l, logs := observed(LevelDebug)
	l.WithContext(ContextWithTick(context.Background(), 42)).Info("tick")
	l.WithContext(context.Background()).Info("no tick")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, uint64(42), logs.All()[0].ContextMap()["tick"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "tick")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": LevelInfo, "DEBUG": LevelDebug, "warning": LevelWarn, "error": LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNopAndProvide(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("discarded", Int("n", 1))
		Provide().Warn("discarded")
	})
}

type stringer string

func (s stringer) String() string { return string(s) }
