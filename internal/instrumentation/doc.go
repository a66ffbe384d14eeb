// Package instrumentation provides OpenTelemetry metrics and tracing for calsync.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: REST API traffic by
//     method, route template and status
//   - external_api_operations_total, external_api_operation_duration_seconds:
//     calls to Google Calendar, Google Meet and the standalone meeting
//     provider by service, operation and status
//   - event_sync_total: orchestrator outcomes by operation and result
//     (synced, pending, skipped, no_change)
//   - cache_operations_total: read-through lookups by cache name and result
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: MCP tool calls
//
// # Tracing
//
// Spans are created for orchestrator operations (events.<op>), external
// calendar calls (google.calendar.<op>), conferencing calls
// (conferencing.<provider>.<op>) and MCP tools (tool.<name>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: calsync)
//
// A disabled provider hands out a zero Metrics value whose Record methods
// do nothing, so callers never need nil checks:
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//	provider.Metrics().RecordSync(ctx, "create", instrumentation.SyncSynced)
package instrumentation
