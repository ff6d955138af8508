// internal/logging/sampling.go
package logging

import (
	"go.uber.org/zap/zapcore"
)

// newSampledCore wraps core with level-aware sampling.
// Error and above are never sampled. Each level below error gets its own
// sampler using that level's entry in cfg.Levels, falling back to Info's.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	cores := []zapcore.Core{
		&levelBandCore{Core: core, min: zapcore.ErrorLevel, max: zapcore.FatalLevel},
	}

	fallback := cfg.Levels[zapcore.InfoLevel]
	for _, lvl := range []zapcore.Level{TraceLevel, zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel} {
		rate, ok := cfg.Levels[lvl]
		if !ok {
			rate = fallback
		}
		band := &levelBandCore{Core: core, min: lvl, max: lvl}
		cores = append(cores, zapcore.NewSamplerWithOptions(band, cfg.Tick.Duration(), rate.Initial, rate.Thereafter))
	}

	return zapcore.NewTee(cores...)
}

// levelBandCore passes only entries with min <= level <= max.
type levelBandCore struct {
	zapcore.Core
	min, max zapcore.Level
}

func (c *levelBandCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && lvl <= c.max && c.Core.Enabled(lvl)
}

func (c *levelBandCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

// With creates a child core that preserves the band.
func (c *levelBandCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelBandCore{
		Core: c.Core.With(fields),
		min:  c.min,
		max:  c.max,
	}
}
