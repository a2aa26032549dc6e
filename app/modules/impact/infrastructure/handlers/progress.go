package impacthandlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/terrapulse/impact-service/app/shared/attr"
)

// HandleProgress handles GET /progress.
func (h *ImpactHandlers) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ImpactHandlers.HandleProgress")
	defer span.End()
	r = r.WithContext(ctx)

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	view, err := h.service.LoadProgress(ctx, session)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toProgressResponse(view))
}

// HandleBadges handles GET /badges.
func (h *ImpactHandlers) HandleBadges(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ImpactHandlers.HandleBadges")
	defer span.End()
	r = r.WithContext(ctx)

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	view, err := h.service.Achievements(ctx, session)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, achievementsResponse{
		Unlocked: toBadgeResponses(view.Unlocked),
		Locked:   toBadgeResponses(view.Locked),
	})
}

// HandleLeaderboard handles GET /leaderboard.
func (h *ImpactHandlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ImpactHandlers.HandleLeaderboard")
	defer span.End()
	r = r.WithContext(ctx)

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	ranking, err := h.service.Leaderboard(ctx, session)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toLeaderboardResponse(*ranking))
}

// HandlePointsChart handles GET /chart/points.png.
func (h *ImpactHandlers) HandlePointsChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ImpactHandlers.HandlePointsChart")
	defer span.End()
	r = r.WithContext(ctx)

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	png, err := h.service.RenderPointsChart(ctx, session)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	if _, err := w.Write(png); err != nil {
		h.logger.WarnContext(ctx, "Failed to write chart", attr.Error(err))
	}
}

// HandleUpdateProfile handles PUT /profile.
func (h *ImpactHandlers) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ImpactHandlers.HandleUpdateProfile")
	defer span.End()
	r = r.WithContext(ctx)

	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "request body must be a JSON profile"})
		return
	}

	if err := h.service.UpdateProfile(ctx, session, req.DisplayName); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
