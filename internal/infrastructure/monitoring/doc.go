/*
Package monitoring provides Prometheus metrics for the HTTP surface and for
dispatched filesystem operations.

# Metrics

  - homefs_http_requests_total, homefs_http_request_duration_seconds
  - homefs_operation_calls_total{tool,status}
  - homefs_operation_duration_seconds{tool}
  - homefs_operation_errors_total{tool,kind}
  - homefs_path_rejections_total{tool}
  - homefs_archive_bytes_total{direction}
  - homefs_uptime_seconds

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	timer := monitoring.NewTimer(metrics, "filesystem.read")
	// ... perform operation ...
	timer.Stop(kind)
*/
package monitoring
