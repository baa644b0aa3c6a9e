package validators

import (
	"escaperooms-directory/internal/models"
)

type RoomValidator interface {
	ValidateFilter(filter *models.RoomFilter) error
	ValidateKey(key string) error
	ValidatePattern(pattern string) error
}
