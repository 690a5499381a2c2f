package reservation

import "expvar"

var (
	metricOperationsTotal = expvar.NewMap("reservation_operations_total")
	metricConflictsTotal  = expvar.NewMap("reservation_conflicts_total")
	metricInternalErrors  = expvar.NewInt("reservation_internal_errors_total")

	metricReconcileTotal      = expvar.NewInt("reservation_reconcile_total")
	metricReconcileSeatsFreed = expvar.NewInt("reservation_reconcile_seats_freed_total")
	metricPublishErrors       = expvar.NewInt("reservation_publish_errors_total")
	metricTransitionLogErrors = expvar.NewInt("reservation_transition_log_errors_total")
	metricRoomRetriesTotal    = expvar.NewInt("reservation_room_retries_total")

	metricReaperSweepsTotal  = expvar.NewInt("reaper_sweeps_total")
	metricReaperEvictedTotal = expvar.NewInt("reaper_evicted_total")
	metricReaperFailedTotal  = expvar.NewInt("reaper_failed_total")
	metricReaperPurgedTotal  = expvar.NewInt("reaper_purged_total")
)
