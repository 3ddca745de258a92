package handlers

import (
	"net/http"
	"time"

	"github.com/spartanofurioso/platform/internal/api/dto"
	"github.com/spartanofurioso/platform/internal/api/middleware"
	"github.com/spartanofurioso/platform/internal/domain/analytics"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// defaultStatsWindow is used when no range is requested
const defaultStatsWindow = 30 * 24 * time.Hour

// AnalyticsHandler handles event tracking and reporting
type AnalyticsHandler struct {
	service   analytics.Service
	logger    *logger.Logger
	validator *validator.Validator
	now       func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service analytics.Service, log *logger.Logger, val *validator.Validator) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: log, validator: val, now: time.Now}
}

// Track records a client event
// @Summary Track event
// @Description Records a page view or interaction; the user is attached when a valid token is sent
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body dto.TrackEventRequest true "Event"
// @Success 202 {object} utils.SuccessResponse
// @Router /api/analytics/track [post]
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req dto.TrackEventRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	e := &analytics.Event{
		SessionID: req.SessionID,
		Type:      analytics.EventType(req.Type),
		Path:      req.Path,
		Referrer:  req.Referrer,
		Metadata:  req.Metadata,
		UserAgent: r.UserAgent(),
	}
	if id, ok := middleware.GetUserID(r); ok {
		e.UserID = &id
	}

	if err := h.service.Track(r.Context(), e); err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusAccepted, "Event recorded", nil)
}

// Stats aggregates events over a window
// @Summary Analytics statistics
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param from query string false "Start (YYYY-MM-DD or RFC3339), defaults to 30 days ago"
// @Param to query string false "End (YYYY-MM-DD or RFC3339), defaults to now"
// @Success 200 {object} analytics.Stats
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/analytics/stats [get]
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	to := h.now().UTC()
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid 'to' date"))
			return
		}
		to = t
	}

	from := to.Add(-defaultStatsWindow)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid 'from' date"))
			return
		}
		from = t
	}

	stats, err := h.service.Stats(r.Context(), from, to)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, stats)
}

// Dashboard returns the admin overview
// @Summary Admin dashboard
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.Overview
// @Router /api/admin/dashboard [get]
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ov, err := h.service.Overview(r.Context())
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, ov)
}

// parseDate accepts RFC3339 or a bare date; a bare end date covers the whole day
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}
