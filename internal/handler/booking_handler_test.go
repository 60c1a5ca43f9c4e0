package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/config"
	"github.com/urbanfix/service-dispatch/internal/domain/geo"
	providerDomain "github.com/urbanfix/service-dispatch/internal/domain/provider"
	"github.com/urbanfix/service-dispatch/internal/domain/tracking"
	"github.com/urbanfix/service-dispatch/internal/platform/auth"
	"github.com/urbanfix/service-dispatch/internal/platform/metrics"
	"github.com/urbanfix/service-dispatch/internal/repository"
)

type handlerFixture struct {
	router     *gin.Engine
	jwtManager *auth.JWTManager
	providers  *repository.MemoryProviderRepository
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bookings := repository.NewMemoryBookingRepository()
	providers := repository.NewMemoryProviderRepository()
	trackLogs := repository.NewMemoryTrackLogRepository()

	cfg := config.TrackingConfig{
		StaleSampleThreshold:    2 * time.Minute,
		RouteHistoryLength:      50,
		AssumedProviderSpeedMps: 8.3,
		PendingTimeout:          10 * time.Minute,
	}

	coordinator := application.NewDispatchCoordinator(
		bookings, providers, trackLogs,
		tracking.NewFixedSpeedModel(cfg.AssumedProviderSpeedMps),
		nil,
		metrics.New(prometheus.NewRegistry()),
		zap.NewNop(),
		cfg,
	)

	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, time.Hour)

	router := gin.New()
	NewBookingHandler(coordinator).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewTrackingHandler(coordinator).RegisterRoutes(&router.RouterGroup, jwtManager)

	return &handlerFixture{router: router, jwtManager: jwtManager, providers: providers}
}

func (f *handlerFixture) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := f.jwtManager.Generate(userID, role)
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) seedProvider(t *testing.T, providerID uuid.UUID) {
	t.Helper()
	prov, err := providerDomain.NewProvider(
		providerID, "Budi", "motorbike",
		geo.Coordinate{Latitude: -6.21, Longitude: 106.84},
		10000,
	)
	require.NoError(t, err)
	require.NoError(t, f.providers.Save(t.Context(), prov))
}

func createBookingPayload() map[string]interface{} {
	return map[string]interface{}{
		"service_id": uuid.New().String(),
		"service_address": map[string]interface{}{
			"line1":       "Jl. Sudirman 12",
			"city":        "Jakarta",
			"state":       "DKI Jakarta",
			"postal_code": "10220",
			"country":     "ID",
			"coordinate":  map[string]float64{"latitude": -6.2088, "longitude": 106.8456},
		},
		"scheduled_at": time.Now().Add(time.Hour).Format(time.RFC3339),
	}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func TestCreateBookingEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	customerID := uuid.New()

	t.Run("requires auth", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/bookings", "", createBookingPayload())
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("requires customer role", func(t *testing.T) {
		token := f.token(t, uuid.New(), auth.RoleProvider)
		rec := f.do(t, http.MethodPost, "/api/v1/bookings", token, createBookingPayload())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("creates pending booking", func(t *testing.T) {
		token := f.token(t, customerID, auth.RoleCustomer)
		rec := f.do(t, http.MethodPost, "/api/v1/bookings", token, createBookingPayload())
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		data := decodeData(t, rec)
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, customerID.String(), data["customer_id"])
	})

	t.Run("rejects invalid coordinate", func(t *testing.T) {
		payload := createBookingPayload()
		payload["service_address"].(map[string]interface{})["coordinate"] = map[string]float64{"latitude": 95, "longitude": 0}
		token := f.token(t, customerID, auth.RoleCustomer)
		rec := f.do(t, http.MethodPost, "/api/v1/bookings", token, payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBookingLifecycleEndpoints(t *testing.T) {
	f := newHandlerFixture(t)
	customerID := uuid.New()
	providerID := uuid.New()
	f.seedProvider(t, providerID)

	customerToken := f.token(t, customerID, auth.RoleCustomer)
	providerToken := f.token(t, providerID, auth.RoleProvider)

	rec := f.do(t, http.MethodPost, "/api/v1/bookings", customerToken, createBookingPayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	bookingID := decodeData(t, rec)["id"].(string)

	// Tracking before acceptance resolves to 422.
	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%s/tracking", bookingID), customerToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Accept.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/accept", bookingID), providerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "accepted", decodeData(t, rec)["status"])

	// Report a location, then read the snapshot.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/location", bookingID), providerToken, map[string]interface{}{
		"latitude":    -6.1988,
		"longitude":   106.8456,
		"captured_at": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeData(t, rec)["accepted"])

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%s/tracking", bookingID), customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeData(t, rec)
	assert.InDelta(t, 1112, snap["distance_meters"].(float64), 15)

	// Start, complete, dispute.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/start", bookingID), providerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/complete", bookingID), providerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Cancel after completion conflicts.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", bookingID), customerToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Location after completion resolves to 409 (session closed).
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/location", bookingID), providerToken, map[string]interface{}{
		"latitude":    -6.2,
		"longitude":   106.84,
		"captured_at": time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/dispute", bookingID), customerToken, map[string]string{
		"reason": "work incomplete",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, "disputed", data["status"])
	assert.Equal(t, "work incomplete", data["status_note"])
}

func TestGetBookingEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	token := f.token(t, uuid.New(), auth.RoleCustomer)

	rec := f.do(t, http.MethodGet, "/api/v1/bookings/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/bookings/"+uuid.New().String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
