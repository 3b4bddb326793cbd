package geo

import "math"

const earthRadiusMeters = 6371000

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceMeters is the great-circle (haversine) distance between two points.
func DistanceMeters(a, b Point) float64 {
	dLat := (b.Latitude - a.Latitude) * (math.Pi / 180)
	dLon := (b.Longitude - a.Longitude) * (math.Pi / 180)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*(math.Pi/180))*math.Cos(b.Latitude*(math.Pi/180))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Within reports whether p lies inside the radius (in meters) around center.
func Within(p, center Point, radius float64) bool {
	return DistanceMeters(p, center) <= radius
}
