package httptransport

import "expvar"

var (
	metricRequestErrors = expvar.NewMap("http_request_errors_total")
	metricAuthFailures  = expvar.NewInt("http_auth_failures_total")
)
