// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// The package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Console output on stderr plus optional OpenTelemetry output
//   - Automatic context field injection (trace_id, request.id, project.id, op)
//   - Redaction of credential fields and bearer/JWT shaped values
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg, err := logging.FromSettings("debug", "json")
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithProjectID(ctx, 42)
//	logger.Warn(ctx, "progress summary unavailable, deriving from tasks", zap.Error(err))
//
// Output includes correlation fields:
//
//	{"level":"warn","ts":"2026-03-02T10:15:30.000Z","msg":"progress summary unavailable, deriving from tasks",
//	 "service":"taskflow","project.id":42,"error":"..."}
//
// # Testing
//
// NewTestLogger records every entry in memory for assertions:
//
//	tl := logging.NewTestLogger()
//	resolver := progress.NewResolver(src, progress.WithLogger(tl.Logger))
//	...
//	tl.AssertLogged(t, zapcore.WarnLevel, "progress diverges")
package logging
