package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/domain/geo"
	"github.com/urbanfix/service-dispatch/internal/platform/auth"
	"github.com/urbanfix/service-dispatch/internal/platform/middleware"
	"github.com/urbanfix/service-dispatch/internal/platform/response"
)

// RelocateRequest is the payload for moving a provider's base location.
type RelocateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ProviderHandler handles HTTP requests for provider profile operations.
type ProviderHandler struct {
	service *application.ProviderService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(service *application.ProviderService) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// RegisterRoutes registers all provider routes on the given router group.
func (h *ProviderHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	providers := r.Group("/api/v1/providers")
	providers.Use(authMW)
	{
		providers.POST("", middleware.RequireRole(auth.RoleProvider), h.RegisterProvider)
		providers.GET("/:id", h.GetProvider)
		providers.PUT("/:id", middleware.RequireRole(auth.RoleProvider), h.UpdateProvider)
		providers.PUT("/me/location", middleware.RequireRole(auth.RoleProvider), h.RelocateProvider)
	}
}

// RegisterProvider handles POST /api/v1/providers.
func (h *ProviderHandler) RegisterProvider(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.RegisterProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RegisterProvider(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetProvider handles GET /api/v1/providers/:id.
func (h *ProviderHandler) GetProvider(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid provider ID")
		return
	}

	result, err := h.service.GetProvider(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateProvider handles PUT /api/v1/providers/:id.
func (h *ProviderHandler) UpdateProvider(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid provider ID")
		return
	}

	var req application.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateProvider(c.Request.Context(), userID, providerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RelocateProvider handles PUT /api/v1/providers/me/location.
func (h *ProviderHandler) RelocateProvider(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req RelocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	base := geo.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	result, err := h.service.RelocateProvider(c.Request.Context(), userID, base)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
