package aggregator

import (
	"math"

	"escaperooms-directory/internal/models"
)

// ComputeStats derives the global directory figures. The average rating is
// taken over rated rooms only and is 0 when none are rated.
func ComputeStats(rooms []models.Room) models.DatabaseStats {
	cities := make(map[string]struct{})
	states := make(map[string]struct{})
	countries := make(map[string]struct{})

	var sum float64
	rated := 0
	for _, r := range rooms {
		if r.City != nil {
			cities[cityKey(r)] = struct{}{}
		}
		if r.State != nil {
			states[*r.State] = struct{}{}
		}
		if r.Country != nil {
			countries[*r.Country] = struct{}{}
		}
		if r.Rating != nil {
			sum += *r.Rating
			rated++
		}
	}

	stats := models.DatabaseStats{
		TotalRooms:     len(rooms),
		TotalCities:    len(cities),
		TotalStates:    len(states),
		TotalCountries: len(countries),
		RatedRooms:     rated,
	}
	if rated > 0 {
		stats.AverageRating = sum / float64(rated)
	}
	return stats
}

// RoundedAverage rounds an average rating to one decimal for display.
func RoundedAverage(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// CountryStats summarises rooms, states and cities per country, ordered by
// descending room count.
func CountryStats(rooms []models.Room) []models.CountryStats {
	c := newCounter()
	states := make(map[string]map[string]struct{})
	cities := make(map[string]map[string]struct{})

	for _, r := range rooms {
		if r.Country == nil {
			continue
		}
		country := *r.Country
		if c.add(country) {
			states[country] = make(map[string]struct{})
			cities[country] = make(map[string]struct{})
		}
		if r.State != nil {
			states[country][*r.State] = struct{}{}
		}
		if r.City != nil {
			cities[country][cityKey(r)] = struct{}{}
		}
	}

	out := make([]models.CountryStats, 0, len(c.keys))
	for _, i := range c.order() {
		country := c.keys[i]
		out = append(out, models.CountryStats{
			Country: country,
			Rooms:   c.counts[i],
			States:  len(states[country]),
			Cities:  len(cities[country]),
		})
	}
	return out
}
