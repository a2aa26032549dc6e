package impactqueue

// ReconcileStatsJob asks a worker to rebuild one user's cached stats and
// badges from their ledger.
type ReconcileStatsJob struct {
	UserID string `json:"user_id"`
}

// Kind returns the job type identifier for River
func (ReconcileStatsJob) Kind() string { return "impact_reconcile_stats" }

// JobInfo represents information about a queued job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	UserID      string `json:"user_id"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
