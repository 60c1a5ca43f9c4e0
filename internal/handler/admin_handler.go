package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/platform/auth"
	"github.com/urbanfix/service-dispatch/internal/platform/middleware"
	"github.com/urbanfix/service-dispatch/internal/platform/response"
)

// AdminHandler handles administrative HTTP endpoints.
type AdminHandler struct {
	coordinator *application.DispatchCoordinator
	providers   *application.ProviderService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(coordinator *application.DispatchCoordinator, providers *application.ProviderService) *AdminHandler {
	return &AdminHandler{coordinator: coordinator, providers: providers}
}

// RegisterRoutes registers all admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListAllBookings)
		admin.GET("/bookings/stats", h.GetBookingStats)
		admin.POST("/providers/:id/suspend", h.SuspendProvider)
		admin.POST("/providers/:id/reinstate", h.ReinstateProvider)
	}
}

// ListAllBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListAllBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.coordinator.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// GetBookingStats handles GET /api/v1/admin/bookings/stats.
func (h *AdminHandler) GetBookingStats(c *gin.Context) {
	stats, err := h.coordinator.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// SuspendProvider handles POST /api/v1/admin/providers/:id/suspend.
func (h *AdminHandler) SuspendProvider(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid provider ID")
		return
	}

	result, err := h.providers.SuspendProvider(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReinstateProvider handles POST /api/v1/admin/providers/:id/reinstate.
func (h *AdminHandler) ReinstateProvider(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid provider ID")
		return
	}

	result, err := h.providers.ReinstateProvider(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
