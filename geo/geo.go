// Package geo provides the small set of spherical-coordinate helpers the
// simulation needs: angle wrapping, great-circle distance, and degree/km
// conversion. Positions are (lat, lon) in decimal degrees, headings in radians.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// KmPerDegree approximates one degree of latitude in kilometres.
const KmPerDegree = 111.0

// Point is a geographic position in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the signed smallest rotation from a to b, in (-pi, pi].
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(b - a)
}

// HeadingTo returns the heading from a toward b in the simulation's local
// convention (atan2 of delta-lat over delta-lon, flat-grid approximation).
func HeadingTo(a, b Point) float64 {
	return math.Atan2(b.Lat-a.Lat, b.Lon-a.Lon)
}

// GreatCircleKm returns the haversine distance between two points in km.
func GreatCircleKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// KmToDegrees converts a distance in km to degrees of latitude.
func KmToDegrees(km float64) float64 {
	return km / KmPerDegree
}

// DegreesToKm converts degrees of latitude to km.
func DegreesToKm(deg float64) float64 {
	return deg * KmPerDegree
}
