package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, lvl)

	_, err = ParseLevel("verbose")
	require.Error(t, err)
}

func TestFrom_PrefersContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	scoped := zap.New(core)

	ctx := ToContext(context.Background(), scoped)
	From(ctx).Info("scoped", Peer("peer-a"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "scoped", entry.Message)
	require.Equal(t, "peer-a", entry.ContextMap()["peer"])
}

func TestReplace_Restores(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	L().Info("via singleton")
	restore()

	require.Equal(t, 1, logs.Len())
	require.NotNil(t, From(nil))
}
