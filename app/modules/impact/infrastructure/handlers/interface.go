package impacthandlers

import "net/http"

// Handlers defines the HTTP surface of the impact module. Every handler
// expects a session in the request context.
type Handlers interface {
	// HandleSubmitActivity records one activity.
	HandleSubmitActivity(w http.ResponseWriter, r *http.Request)

	// HandleListActivities returns the caller's history.
	HandleListActivities(w http.ResponseWriter, r *http.Request)

	// HandleExportActivities downloads the history as CSV or XLSX.
	HandleExportActivities(w http.ResponseWriter, r *http.Request)

	// HandleProgress returns the dashboard snapshot.
	HandleProgress(w http.ResponseWriter, r *http.Request)

	// HandleBadges returns unlocked and locked badges.
	HandleBadges(w http.ResponseWriter, r *http.Request)

	// HandleLeaderboard returns the ranked roster.
	HandleLeaderboard(w http.ResponseWriter, r *http.Request)

	// HandlePointsChart renders the cumulative points chart.
	HandlePointsChart(w http.ResponseWriter, r *http.Request)

	// HandleUpdateProfile sets the caller's leaderboard name.
	HandleUpdateProfile(w http.ResponseWriter, r *http.Request)
}
