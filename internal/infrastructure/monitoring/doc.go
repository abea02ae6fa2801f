/*
Package monitoring provides Prometheus metrics for the bridge.

# Metrics

  - bridge_http_requests_total{method,path,status}
  - bridge_http_request_duration_seconds{method,path}
  - bridge_http_response_size_bytes{method,path}
  - bridge_triggers_total{outcome,probe}
  - bridge_trigger_duration_seconds{outcome}
  - bridge_triggers_shared_total
  - bridge_uptime_seconds

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

The exposition endpoint is served on its own listener so the bridge port keeps
its fixed route set:

	http.ListenAndServe(cfg.Metrics.Addr, metrics.Handler())
*/
package monitoring
