package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/domain/booking"
	"github.com/urbanfix/service-dispatch/internal/platform/auth"
	"github.com/urbanfix/service-dispatch/internal/platform/middleware"
	"github.com/urbanfix/service-dispatch/internal/platform/response"
)

// CreateBookingRequest is the payload for creating a booking.
type CreateBookingRequest struct {
	ServiceID      uuid.UUID              `json:"service_id" binding:"required"`
	ServiceAddress booking.ServiceAddress `json:"service_address" binding:"required"`
	ScheduledAt    time.Time              `json:"scheduled_at" binding:"required"`
	Notes          string                 `json:"notes"`
}

// EventRequest carries the optional reason for a lifecycle action.
type EventRequest struct {
	Reason string `json:"reason"`
}

// BookingHandler handles HTTP requests for booking lifecycle operations.
type BookingHandler struct {
	coordinator *application.DispatchCoordinator
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(coordinator *application.DispatchCoordinator) *BookingHandler {
	return &BookingHandler{coordinator: coordinator}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleCustomer), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/accept", middleware.RequireRole(auth.RoleProvider), h.AcceptBooking)
		bookings.POST("/:id/reject", middleware.RequireRole(auth.RoleProvider), h.RejectBooking)
		bookings.POST("/:id/start", middleware.RequireRole(auth.RoleProvider), h.StartBooking)
		bookings.POST("/:id/complete", middleware.RequireRole(auth.RoleProvider), h.CompleteBooking)
		bookings.POST("/:id/cancel", middleware.RequireRole(auth.RoleCustomer), h.CancelBooking)
		bookings.POST("/:id/dispute", middleware.RequireRole(auth.RoleCustomer), h.DisputeBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.coordinator.CreateBooking(c.Request.Context(), userID, req.ServiceID, req.ServiceAddress, req.ScheduledAt, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Customers see their own
// bookings, providers see bookings assigned to them.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	switch role {
	case auth.RoleProvider:
		result, err := h.coordinator.GetProviderBookings(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)

	default:
		result, err := h.coordinator.GetCustomerBookings(c.Request.Context(), userID, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
	}
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.coordinator.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AcceptBooking handles POST /api/v1/bookings/:id/accept.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	h.submitEvent(c, booking.EventProviderAccept, booking.ActorProvider)
}

// RejectBooking handles POST /api/v1/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	h.submitEvent(c, booking.EventProviderReject, booking.ActorProvider)
}

// StartBooking handles POST /api/v1/bookings/:id/start.
func (h *BookingHandler) StartBooking(c *gin.Context) {
	h.submitEvent(c, booking.EventProviderStart, booking.ActorProvider)
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.submitEvent(c, booking.EventProviderComplete, booking.ActorProvider)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.submitEvent(c, booking.EventCustomerCancel, booking.ActorCustomer)
}

// DisputeBooking handles POST /api/v1/bookings/:id/dispute.
func (h *BookingHandler) DisputeBooking(c *gin.Context) {
	h.submitEvent(c, booking.EventCustomerDispute, booking.ActorCustomer)
}

func (h *BookingHandler) submitEvent(c *gin.Context, event booking.Event, actorType booking.ActorType) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req EventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	actor := booking.Actor{Type: actorType, ID: userID}
	result, err := h.coordinator.SubmitEvent(c.Request.Context(), bookingID, event, actor, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
