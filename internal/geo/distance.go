// Package geo provides the great-circle distance computation used by
// distance filtering, distance ordering and the "distance to campus"
// display. It is pure math: callers must reject missing or non-finite
// coordinates before calling in.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between two
// points given in decimal degrees, using the haversine formula. The result
// is symmetric in its arguments and zero for identical points. Inputs are
// assumed to be finite; there is no error path.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
    dLat := radians(lat2 - lat1)
    dLon := radians(lon2 - lon1)

    a := math.Sin(dLat/2)*math.Sin(dLat/2) +
        math.Cos(radians(lat1))*math.Cos(radians(lat2))*
            math.Sin(dLon/2)*math.Sin(dLon/2)
    c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
    return earthRadiusKm * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
