package impacthandlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	impactservice "github.com/terrapulse/impact-service/app/modules/impact/application"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
	"github.com/terrapulse/impact-service/app/shared/attr"
)

// HandleSubmitActivity handles POST /activities. A confirmed submission
// answers 201; an unconfirmed one answers 202 since the activity is stored
// but its stats are still being repaired.
func (h *ImpactHandlers) HandleSubmitActivity(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ImpactHandlers.HandleSubmitActivity")
	defer span.End()
	r = r.WithContext(ctx)

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req submitActivityRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "request body must be a JSON activity"})
		return
	}

	activityType, err := impactdomain.ParseActivityType(req.ActivityType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.service.SubmitActivity(ctx, session, impactdomain.ActivityInput{
		Type:     activityType,
		Quantity: req.Quantity,
		Location: req.Location,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if !res.Confirmed() {
		status = http.StatusAccepted
	}
	h.writeJSON(w, r, status, toSubmissionResponse(res))
}

// HandleListActivities handles GET /activities?filter=&limit=.
func (h *ImpactHandlers) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ImpactHandlers.HandleListActivities")
	defer span.End()
	r = r.WithContext(ctx)

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	query := impactservice.HistoryQuery{Filter: r.URL.Query().Get("filter")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer", Field: "limit"})
			return
		}
		query.Limit = limit
	}

	activities, err := h.service.ListActivities(ctx, session, query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toActivityResponses(activities))
}

// HandleExportActivities handles GET /activities/export?format=csv|xlsx.
func (h *ImpactHandlers) HandleExportActivities(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ImpactHandlers.HandleExportActivities")
	defer span.End()
	r = r.WithContext(ctx)

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	format := impactservice.ExportFormat(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = impactservice.ExportCSV
	}

	export, err := h.service.ExportActivities(ctx, session, format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	if _, err := w.Write(export.Data); err != nil {
		h.logger.WarnContext(ctx, "Failed to write export", attr.Error(err))
	}
}
