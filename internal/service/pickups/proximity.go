package pickups

import (
	"math"
	"sort"

	"github.com/ecocycle/ecocycle/internal/models"
)

// earthRadiusKm is the Earth radius used by the Haversine formula.
const earthRadiusKm = 6371.0

// Match is a nearby organization with its distance from the requester.
type Match struct {
	Organization models.Organization `json:"organization"`
	DistanceKm   float64             `json:"distance_km"`
}

// haversineKm computes the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// rankByDistance filters organizations to those within radiusKm of the
// requester, sorted ascending by distance. Organizations without coordinates
// are excluded.
func rankByDistance(orgs []models.Organization, lat, lon, radiusKm float64, services []string, limit int) []Match {
	matches := make([]Match, 0, len(orgs))
	for _, org := range orgs {
		if !org.HasCoordinates() {
			continue
		}
		if !org.OffersAny(services) {
			continue
		}

		distance := haversineKm(lat, lon, *org.Latitude, *org.Longitude)
		if distance > radiusKm {
			continue
		}
		matches = append(matches, Match{Organization: org, DistanceKm: distance})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
