// Package geo resolves coordinates to addresses.
package geo

import (
	"context"
	"errors"
	"strings"
)

// ErrAddressNotFound is returned when no address exists for the coordinates.
var ErrAddressNotFound = errors.New("address not found")

const districtSuffix = "동"

// Geocoder resolves a coordinate pair to a space-separated address.
type Geocoder interface {
	Address(ctx context.Context, latitude, longitude float64) (string, error)
}

// District returns the last token of address that ends in the neighbourhood
// suffix, e.g. "용현동" from "인천 미추홀구 용현동 123-4".
func District(address string) (string, bool) {
	var district string
	for _, token := range strings.Fields(address) {
		if strings.HasSuffix(token, districtSuffix) {
			district = token
		}
	}
	return district, district != ""
}
