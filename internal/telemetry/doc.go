// Package telemetry provides OpenTelemetry tracing and metrics export for
// taskflow.
//
// Telemetry is off by default. When enabled it exports over OTLP, either
// http/protobuf (default, port 4318) or grpc, and installs W3C trace
// context propagation.
//
//	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	client, err := api.NewFromConfig(cfg.API, transport,
//	    api.WithTracerProvider(tel.TracerProvider()),
//	    api.WithMeterProvider(tel.MeterProvider()))
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4318"
//	  protocol: "http/protobuf"
//	  insecure: true
//	  sample_rate: 1.0
//
// A failing exporter degrades the instance instead of failing startup;
// Health reports why.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	client, _ := api.New(url, api.WithTracerProvider(tt.TracerProvider()))
//	...
//	tt.AssertSpanExists(t, "api.list_projects")
package telemetry
