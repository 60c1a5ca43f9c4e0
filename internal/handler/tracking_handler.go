package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/domain/geo"
	"github.com/urbanfix/service-dispatch/internal/domain/tracking"
	"github.com/urbanfix/service-dispatch/internal/platform/auth"
	"github.com/urbanfix/service-dispatch/internal/platform/middleware"
	"github.com/urbanfix/service-dispatch/internal/platform/response"
)

// ReportLocationRequest is the payload for a provider position report.
type ReportLocationRequest struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters"`
	CapturedAt     time.Time `json:"captured_at" binding:"required"`
}

// IngestResultResponse reports whether a location sample was applied.
type IngestResultResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// TrackingHandler handles HTTP requests for live tracking.
type TrackingHandler struct {
	coordinator *application.DispatchCoordinator
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(coordinator *application.DispatchCoordinator) *TrackingHandler {
	return &TrackingHandler{coordinator: coordinator}
}

// RegisterRoutes registers all tracking routes on the given router group.
func (h *TrackingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("/:id/location", middleware.RequireRole(auth.RoleProvider), h.ReportLocation)
		bookings.GET("/:id/tracking", h.GetTracking)
		bookings.GET("/:id/tracking/stream", h.StreamTracking)
	}
}

// ReportLocation handles POST /api/v1/bookings/:id/location.
func (h *TrackingHandler) ReportLocation(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req ReportLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sample := tracking.LocationSample{
		BookingID:      bookingID,
		Position:       geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		AccuracyMeters: req.AccuracyMeters,
		CapturedAt:     req.CapturedAt,
		ReceivedAt:     time.Now().UTC(),
	}

	result, err := h.coordinator.ReportLocation(c.Request.Context(), bookingID, sample)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, IngestResultResponse{
		Accepted: result.Accepted,
		Reason:   string(result.Reason),
	})
}

// GetTracking handles GET /api/v1/bookings/:id/tracking. Returns the latest
// tracking snapshot for the booking.
func (h *TrackingHandler) GetTracking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	state, err := h.coordinator.TrackingSnapshot(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, state)
}

// StreamTracking handles GET /api/v1/bookings/:id/tracking/stream. Pushes
// tracking snapshots over server-sent events until the client disconnects or
// the session publishes its final snapshot.
func (h *TrackingHandler) StreamTracking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	initial, err := h.coordinator.TrackingSnapshot(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Snapshot callbacks run on publisher goroutines; bridge them into a
	// buffered channel drained by the streaming loop. Drop on overflow so a
	// slow client never stalls the session.
	updates := make(chan tracking.TrackingState, 16)
	subID := h.coordinator.Subscribe(bookingID, func(state tracking.TrackingState) {
		select {
		case updates <- state:
		default:
		}
	})
	defer h.coordinator.Unsubscribe(bookingID, subID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	c.SSEvent("tracking", initial)
	c.Writer.Flush()
	if initial.Final {
		return
	}

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case state := <-updates:
			c.SSEvent("tracking", state)
			return !state.Final
		}
	})
}
