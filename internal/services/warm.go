package services

import (
	"context"

	"escaperooms-directory/internal/aggregator"
	"escaperooms-directory/internal/models"
	"escaperooms-directory/pkg/cache"
	"escaperooms-directory/pkg/logger"
)

// WarmReport summarises a warm-up run.
type WarmReport struct {
	Rooms     int
	States    int
	Cities    int
	Themes    int
	Countries int
	Details   int
	Outcomes  map[string]cache.Outcome
	Stats     *models.DatabaseStats
}

// Warm precomputes the canonical collections. With perRoom set it also fills
// the slug entry of every room, as pre-rendering of detail pages would. The
// source is walked at most once per collection: statistics and slug entries
// are built from the collections already in hand.
func (s *RoomService) Warm(ctx context.Context, perRoom bool) (*WarmReport, error) {
	report := &WarmReport{Outcomes: make(map[string]cache.Outcome)}

	full, outcome, err := s.loadCollection(ctx, cache.AllRoomsKey(), false)
	if err != nil {
		return report, err
	}
	report.Outcomes[cache.AllRoomsKey()] = outcome

	lite, outcome, err := s.loadCollection(ctx, cache.AllRoomsLiteKey(), true)
	if err != nil {
		return report, err
	}
	report.Outcomes[cache.AllRoomsLiteKey()] = outcome

	report.Rooms = len(lite)
	report.States = len(aggregator.GroupByState(lite))
	report.Cities = len(aggregator.GroupByCity(lite))
	report.Themes = len(aggregator.GroupByTheme(lite))
	report.Countries = len(aggregator.GroupByCountry(lite))

	report.Stats = databaseStats(lite)

	if perRoom {
		for _, r := range full {
			if r.Slug == "" {
				continue
			}
			if err := s.primeRoom(ctx, r); err != nil {
				return report, err
			}
			report.Details++
		}
	}

	logger.GlobalLogger.Printf("Cache warmed: rooms=%d, states=%d, cities=%d, themes=%d, details=%d",
		report.Rooms, report.States, report.Cities, report.Themes, report.Details)
	return report, nil
}

// primeRoom stores room under its slug key unless a runtime read finds it
// already cached.
func (s *RoomService) primeRoom(ctx context.Context, room models.Room) error {
	_, _, err := cache.GetOrCompute(ctx, s.cache, cache.RoomSlugKey(room.Slug), s.ttl.SingleRoom, func(context.Context) (*models.Room, error) {
		return &room, nil
	})
	return err
}
