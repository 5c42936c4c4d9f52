package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/service"
)

// AnalyticsHandler serves the click-through redirects and visit tracking.
type AnalyticsHandler struct {
	analytics    *service.AnalyticsService
	notFoundPath string
	logger       *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler. notFoundPath is where
// failed click-throughs are redirected, "/404" when empty.
func NewAnalyticsHandler(analytics *service.AnalyticsService, notFoundPath string, logger *slog.Logger) *AnalyticsHandler {
	if notFoundPath == "" {
		notFoundPath = "/404"
	}
	return &AnalyticsHandler{
		analytics:    analytics,
		notFoundPath: notFoundPath,
		logger:       logger,
	}
}

// HandleClick counts a click and redirects to the student's profile on the
// platform.
//
// HTTP: GET /api/analytics/{platform}/{id}
//
// ALWAYS A REDIRECT:
// These URLs sit behind links on profile pages, so the browser must land
// somewhere. Unknown platform, unknown student, an empty target and store
// failures all redirect to the not-found page instead of returning JSON.
func (h *AnalyticsHandler) HandleClick(w http.ResponseWriter, r *http.Request) {
	platform := model.Platform(chi.URLParam(r, "platform"))

	target, err := h.analytics.TrackClick(r.Context(), platform, pathSegment(r))
	if err != nil {
		h.logger.Debug("click-through redirected to not found",
			slog.String("platform", string(platform)),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, h.notFoundPath, http.StatusFound)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// HandleVisit counts a profile view.
//
// HTTP: POST /api/analytics/visit/{id}
func (h *AnalyticsHandler) HandleVisit(w http.ResponseWriter, r *http.Request) {
	err := h.analytics.TrackVisit(r.Context(), pathSegment(r))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, apperror.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Student not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Failed to track visit"})
	}
}
