package logging

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/taskflow/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampledLogger(cfg SamplingConfig) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(TraceLevel)
	return &Logger{zap: zap.New(newSampledCore(core, cfg)), config: NewDefaultConfig()}, observed
}

func TestNewSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	assert.Equal(t, core, newSampledCore(core, SamplingConfig{Enabled: false}))
}

func TestNewSampledCore_ErrorsNeverSampled(t *testing.T) {
	logger, observed := sampledLogger(SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels:  DefaultLevelSamplingConfig(),
	})

	for i := 0; i < 250; i++ {
		logger.Error(context.Background(), "refresh failed")
	}

	assert.Equal(t, 250, observed.FilterMessage("refresh failed").Len())
}

func TestNewSampledCore_PerLevelRates(t *testing.T) {
	logger, observed := sampledLogger(SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels: map[zapcore.Level]LevelSamplingConfig{
			zapcore.InfoLevel: {Initial: 5, Thereafter: 0},
			zapcore.WarnLevel: {Initial: 2, Thereafter: 0},
		},
	})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		logger.Info(ctx, "info line")
		logger.Warn(ctx, "warn line")
		logger.Debug(ctx, "debug line")
	}

	assert.Equal(t, 5, observed.FilterMessage("info line").Len())
	assert.Equal(t, 2, observed.FilterMessage("warn line").Len())
	// Levels without an entry use Info's rate.
	assert.Equal(t, 5, observed.FilterMessage("debug line").Len())
}

func TestLevelBandCore_WithPreservesBand(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	band := (&levelBandCore{Core: core, min: zapcore.WarnLevel, max: zapcore.WarnLevel}).
		With([]zapcore.Field{zap.String("k", "v")})

	logger := zap.New(band)
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("dropped too")

	entries := observed.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "kept", entries[0].Message)
		assert.Equal(t, "v", entries[0].ContextMap()["k"])
	}
}
