package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx"
)

func TestLoggerMethods(t *testing.T) {
	logger := NewLogger("error")
	ctx := context.Background()
	require.NotPanics(t, func() {
		logger.Debug(ctx, "debug", Fields{"k": "v"})
		logger.Info(ctx, "info", nil)
		logger.Warn(ctx, "warn", Fields{})
		logger.Error(ctx, errors.New("boom"), Fields{"model": "gemini-2.5-flash"})
	})
	require.NotPanics(t, func() {
		NopLogger().Error(ctx, errors.New("ignored"), nil)
	})
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, uint32(logx.DebugLevel), parseLevel("  DEBUG "))
	require.Equal(t, uint32(logx.ErrorLevel), parseLevel("error"))
	require.Equal(t, parseLevel("severe"), parseLevel("fatal"))
	require.Equal(t, uint32(logx.InfoLevel), parseLevel(""))
	require.Equal(t, uint32(logx.InfoLevel), parseLevel("warn"))
}

func TestToLogFieldsSorted(t *testing.T) {
	fields := toLogFields(Fields{"b": 2, "a": 1, "c": 3})
	require.Len(t, fields, 3)
	require.Equal(t, "a", fields[0].Key)
	require.Equal(t, "c", fields[2].Key)
	require.Nil(t, toLogFields(nil))
}
