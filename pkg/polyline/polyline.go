// Package polyline implements Google's encoded polyline algorithm, the geometry format OSRM
// returns for `geometries=polyline` (precision 5) and `geometries=polyline6` (precision 6).
// The algorithm is documented at: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"

	"github.com/digitaladdress/locator/pkg/geo"
)

// Precision values understood by OSRM.
const (
	Precision5 = 5
	Precision6 = 6
)

// ErrTruncated is returned when the encoded string ends in the middle of a value.
var ErrTruncated = errors.New("polyline: truncated input")

// Decode decodes a precision-5 polyline into coordinates.
func Decode(encoded string) ([]geo.Coordinate, error) {
	return DecodePrecision(encoded, Precision5)
}

// DecodePrecision decodes a polyline encoded with the given number of decimal places.
func DecodePrecision(encoded string, precision int) ([]geo.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	factor := math.Pow10(precision)
	coords := make([]geo.Coordinate, 0, len(encoded)/4)
	index := 0
	lat := 0
	lon := 0

	for index < len(encoded) {
		latDelta, next, ok := decodeValue(encoded, index)
		if !ok {
			return nil, ErrTruncated
		}
		lat += latDelta

		lonDelta, next, ok := decodeValue(encoded, next)
		if !ok {
			return nil, ErrTruncated
		}
		lon += lonDelta
		index = next

		coords = append(coords, geo.Coordinate{
			Lat: float64(lat) / factor,
			Lon: float64(lon) / factor,
		})
	}

	return coords, nil
}

// decodeValue decodes one zig-zag value starting at index.
// ok is false when the input ends before the value's terminating chunk.
func decodeValue(encoded string, index int) (value, next int, ok bool) {
	shift := 0
	result := 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), index, true
			}
			return result >> 1, index, true
		}
	}

	return 0, index, false
}

// Encode encodes coordinates as a precision-5 polyline.
func Encode(coords []geo.Coordinate) string {
	return EncodePrecision(coords, Precision5)
}

// EncodePrecision encodes coordinates with the given number of decimal places.
func EncodePrecision(coords []geo.Coordinate, precision int) string {
	if len(coords) == 0 {
		return ""
	}

	factor := math.Pow10(precision)
	encoded := make([]byte, 0, len(coords)*4)
	prevLat := 0
	prevLon := 0

	for _, coord := range coords {
		lat := int(math.Round(coord.Lat * factor))
		lon := int(math.Round(coord.Lon * factor))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(encoded)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	buf = append(buf, byte(value)+63)

	return buf
}
