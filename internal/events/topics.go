package events

// Kafka topic and event type names shared across services.
const (
	TopicBookingEvents   = "booking.events"
	TopicTrackingAlerts  = "tracking.alerts"
	TopicLocationReports = "location.reports"

	EventSource = "service-dispatch"

	// Event types carried on booking.events.
	BookingStatusChanged = "booking.status.changed"

	// Event types carried on tracking.alerts.
	ProviderArrivingSoon = "tracking.provider.arriving_soon"

	// Event types carried on location.reports.
	ProviderLocationReported = "tracking.provider.location"
)
