package geocoding

import (
	"context"
	"strings"

	"github.com/samirrijal/placeshare/internal/core/domain"
)

// EmpireStateBuilding is the point the static geocoder returns.
var EmpireStateBuilding = domain.GeoPoint{Lat: 40.7484474, Lng: -73.9871516}

// Static resolves every non-blank address to a fixed point. It is meant for
// local development without an API key.
type Static struct {
	Point domain.GeoPoint
}

func NewStatic() *Static {
	return &Static{Point: EmpireStateBuilding}
}

func (s *Static) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	if strings.TrimSpace(address) == "" {
		return domain.GeoPoint{}, domain.ErrAddressNotFound
	}
	return s.Point, nil
}
