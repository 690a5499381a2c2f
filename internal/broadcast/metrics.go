package broadcast

import "expvar"

var (
	metricEventsPublished = expvar.NewInt("broadcast_events_published_total")
	metricEventsDropped   = expvar.NewInt("broadcast_events_dropped_total")
	metricWatchRejected   = expvar.NewInt("broadcast_watch_rejected_total")

	metricWSConnectionsTotal  = expvar.NewInt("ws_connections_total")
	metricWSConnectionsActive = expvar.NewInt("ws_connections_active")

	metricSSEConnectionsTotal  = expvar.NewInt("sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("sse_connections_active")
)
