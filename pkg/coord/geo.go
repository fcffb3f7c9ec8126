//nolint:gomnd
package coord

import "math"

const (
	earthRadius = 6371000. // meters
	toRadian    = math.Pi / 180
)

// Distance returns the great-circle distance between two points in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	// haversine formula
	deltaF := (lat2 - lat1) * toRadian
	deltaL := (lon2 - lon1) * toRadian
	a := math.Sin(deltaF/2)*math.Sin(deltaF/2) + math.Cos(lat1*toRadian)*math.Cos(lat2*toRadian)*math.Sin(deltaL/2)*math.Sin(deltaL/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

type Box struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Wraps reports whether the box crosses the antimeridian. A wrapped box
// means the two ranges [LonMin, 180] and [-180, LonMax].
func (b Box) Wraps() bool {
	return b.LonMin > b.LonMax
}

// Bounds returns a lat/lon box that covers a circle of radius meters
// around the point. Latitude clamps at the poles. Longitude wraps at
// the antimeridian, see Wraps.
func Bounds(lat, lon, radius float64) Box {
	dLat := radius / earthRadius / toRadian

	b := Box{
		LatMin: math.Max(lat-dLat, -90),
		LatMax: math.Min(lat+dLat, 90),
		LonMin: -180,
		LonMax: 180,
	}

	cos := math.Cos(lat * toRadian)
	if cos < 1e-6 {
		return b
	}

	dLon := dLat / cos
	if dLon >= 180 {
		return b
	}

	b.LonMin = normLon(lon - dLon)
	b.LonMax = normLon(lon + dLon)

	return b
}

func normLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}

	for lon < -180 {
		lon += 360
	}

	return lon
}

func ValidLon(lon float64) bool {
	return lon >= -180 && lon <= 180
}

func ValidLat(lat float64) bool {
	return lat >= -90 && lat <= 90
}
