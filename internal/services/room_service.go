package services

import (
	"context"
	"errors"

	"escaperooms-directory/internal/aggregator"
	"escaperooms-directory/internal/models"
	"escaperooms-directory/internal/repositories"
	"escaperooms-directory/pkg/cache"
	"escaperooms-directory/pkg/config"
	"escaperooms-directory/pkg/logger"
)

// RoomService is the inbound contract for the rendering layer. Every view is
// derived from one cached room collection; only single-room lookups that miss
// the collection go back to the source.
type RoomService struct {
	cache *cache.Manager
	repo  repositories.RoomRepository
	ttl   config.TTLConfig
}

func NewRoomService(manager *cache.Manager, repo repositories.RoomRepository, ttl config.TTLConfig) *RoomService {
	return &RoomService{
		cache: manager,
		repo:  repo,
		ttl:   ttl,
	}
}

// rooms returns the canonical lite collection backing list and count views.
func (s *RoomService) rooms(ctx context.Context) ([]models.Room, error) {
	return s.collection(ctx, cache.AllRoomsLiteKey(), true)
}

// fullRooms returns the collection with long-form text, used for detail
// lookups and pre-rendering.
func (s *RoomService) fullRooms(ctx context.Context) ([]models.Room, error) {
	return s.collection(ctx, cache.AllRoomsKey(), false)
}

func (s *RoomService) collection(ctx context.Context, key string, lite bool) ([]models.Room, error) {
	rooms, _, err := s.loadCollection(ctx, key, lite)
	return rooms, err
}

func (s *RoomService) loadCollection(ctx context.Context, key string, lite bool) ([]models.Room, cache.Outcome, error) {
	rooms, outcome, err := cache.GetOrCompute(ctx, s.cache, key, s.ttl.AllRooms, func(ctx context.Context) (*[]models.Room, error) {
		all, err := s.repo.FindAll(ctx, lite)
		if err != nil {
			return nil, err
		}
		return &all, nil
	})
	if err != nil {
		return nil, outcome, err
	}
	if rooms == nil {
		return []models.Room{}, outcome, nil
	}
	return *rooms, outcome, nil
}

// SearchRooms filters and paginates the collection. Count is the number of
// matches before pagination.
func (s *RoomService) SearchRooms(ctx context.Context, filter models.RoomFilter) (models.ListResult, error) {
	rooms, err := s.rooms(ctx)
	if err != nil {
		return models.ListResult{Data: []models.Room{}}, err
	}

	matched := aggregator.Filter(rooms, filter)
	return models.ListResult{
		Data:  aggregator.Paginate(matched, filter.Limit, filter.Offset),
		Count: len(matched),
	}, nil
}

// ListRooms is SearchRooms for page renderers: on failure it logs and returns
// an empty result with a nil error so the page renders its empty state.
func (s *RoomService) ListRooms(ctx context.Context, filter models.RoomFilter) models.ListResult {
	res, err := s.SearchRooms(ctx, filter)
	if err != nil {
		logger.GlobalLogger.Errorf("List rooms failed: filter=%+v, error=%v", filter, err)
		return models.ListResult{Data: []models.Room{}}
	}
	return res
}

func (s *RoomService) GetRoomsByState(ctx context.Context, state string, limit, offset int) models.ListResult {
	return s.ListRooms(ctx, models.RoomFilter{State: state, Limit: limit, Offset: offset})
}

func (s *RoomService) GetRoomsByCity(ctx context.Context, city string, limit, offset int) models.ListResult {
	return s.ListRooms(ctx, models.RoomFilter{City: city, Limit: limit, Offset: offset})
}

func (s *RoomService) GetRoomsByTheme(ctx context.Context, theme string, limit, offset int) models.ListResult {
	return s.ListRooms(ctx, models.RoomFilter{Theme: theme, Limit: limit, Offset: offset})
}

// GetRoomByID returns the full room or nil when it does not exist.
func (s *RoomService) GetRoomByID(ctx context.Context, id string) (*models.Room, error) {
	return s.single(ctx, cache.RoomIDKey(id), id,
		aggregator.FindByID,
		s.repo.FindByID,
	)
}

// GetRoomBySlug returns the full room or nil when it does not exist.
func (s *RoomService) GetRoomBySlug(ctx context.Context, slug string) (*models.Room, error) {
	return s.single(ctx, cache.RoomSlugKey(slug), slug,
		aggregator.FindBySlug,
		s.repo.FindBySlug,
	)
}

// single looks the room up in the cached full collection first and falls
// back to a single-entity source lookup. A nil result is not cached, so a
// room published later is picked up on the next call.
func (s *RoomService) single(
	ctx context.Context,
	key, ref string,
	find func([]models.Room, string) *models.Room,
	lookup func(context.Context, string) (*models.Room, error),
) (*models.Room, error) {
	room, _, err := cache.GetOrCompute(ctx, s.cache, key, s.ttl.SingleRoom, func(ctx context.Context) (*models.Room, error) {
		rooms, err := s.fullRooms(ctx)
		if err == nil {
			if r := find(rooms, ref); r != nil {
				return r, nil
			}
		} else {
			logger.GlobalLogger.Warnf("Room collection unavailable, using single lookup: ref=%s, error=%v", ref, err)
		}
		return lookup(ctx, ref)
	})
	if err != nil {
		logger.GlobalLogger.Errorf("Get room failed: ref=%s, error=%v", ref, err)
		return nil, err
	}
	return room, nil
}

func (s *RoomService) GetStateCounts(ctx context.Context) ([]models.StateCount, error) {
	rooms, err := s.rooms(ctx)
	if err != nil {
		return nil, err
	}
	return aggregator.GroupByState(rooms), nil
}

// GetCityCounts counts rooms per city, optionally restricted to one state.
func (s *RoomService) GetCityCounts(ctx context.Context, state string) ([]models.CityCount, error) {
	rooms, err := s.rooms(ctx)
	if err != nil {
		return nil, err
	}
	if state != "" {
		rooms = aggregator.Filter(rooms, models.RoomFilter{State: state})
	}
	return aggregator.GroupByCity(rooms), nil
}

func (s *RoomService) GetThemeCounts(ctx context.Context) ([]models.ThemeCount, error) {
	rooms, err := s.rooms(ctx)
	if err != nil {
		return nil, err
	}
	return aggregator.GroupByTheme(rooms), nil
}

func (s *RoomService) GetCountryCounts(ctx context.Context) ([]models.CountryCount, error) {
	rooms, err := s.rooms(ctx)
	if err != nil {
		return nil, err
	}
	return aggregator.GroupByCountry(rooms), nil
}

func (s *RoomService) GetCountryStats(ctx context.Context) ([]models.CountryStats, error) {
	rooms, err := s.rooms(ctx)
	if err != nil {
		return nil, err
	}
	return aggregator.CountryStats(rooms), nil
}

// GetDatabaseStats returns the global figures, recomputed from the canonical
// collection so they never disagree with the count views. The average rating
// is rounded to one decimal.
func (s *RoomService) GetDatabaseStats(ctx context.Context) (*models.DatabaseStats, error) {
	rooms, err := s.rooms(ctx)
	if err != nil {
		logger.GlobalLogger.Errorf("Get database stats failed: error=%v", err)
		return nil, err
	}
	return databaseStats(rooms), nil
}

func databaseStats(rooms []models.Room) *models.DatabaseStats {
	st := aggregator.ComputeStats(rooms)
	st.AverageRating = aggregator.RoundedAverage(st.AverageRating)
	return &st
}

func (s *RoomService) Invalidate(ctx context.Context, key string) error {
	return s.cache.Invalidate(ctx, key)
}

func (s *RoomService) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	return s.cache.InvalidatePattern(ctx, pattern)
}

// roomPatterns cover every key this service writes.
var roomPatterns = []string{"rooms:*", "room:*"}

// InvalidateAll drops every collection and single-room entry.
func (s *RoomService) InvalidateAll(ctx context.Context) (int, error) {
	total := 0
	var errs []error
	for _, p := range roomPatterns {
		n, err := s.cache.InvalidatePattern(ctx, p)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}
