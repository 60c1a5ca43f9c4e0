package booking

import (
	"github.com/urbanfix/service-dispatch/internal/platform/domain"

	"github.com/urbanfix/service-dispatch/internal/domain/geo"
)

// ServiceAddress is the destination of a booking: a structured postal
// address with its geocoded coordinate.
type ServiceAddress struct {
	Line1      string         `json:"line1"`
	Line2      string         `json:"line2,omitempty"`
	City       string         `json:"city"`
	State      string         `json:"state"`
	PostalCode string         `json:"postal_code"`
	Country    string         `json:"country"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// Validate checks the address has a street line and a valid coordinate.
func (a ServiceAddress) Validate() error {
	if a.Line1 == "" {
		return domain.NewValidationError("service address line1 is required")
	}
	if err := a.Coordinate.Validate(); err != nil {
		return err
	}
	return nil
}
