// Package telemetry provides hook.Observer implementations exporting engine
// activity to Prometheus, OpenTelemetry and log/slog.
//
// Observers are installed per store with hook.WithObserver, or for every
// store with hook.SetObserver. Combine several with hook.MultiObserver:
//
//	reg := prometheus.NewRegistry()
//	hook.SetObserver(hook.MultiObserver(
//	    telemetry.NewMetrics(telemetry.WithRegistry(reg)),
//	    telemetry.NewTracer(telemetry.WithTracerName("player")),
//	    telemetry.NewLogObserver(slog.Default()),
//	))
package telemetry
