package repositories

import (
	"context"

	"escaperooms-directory/internal/models"
)

// RoomSource is the outbound contract to the content source. A lookup that
// finds nothing returns nil, nil.
type RoomSource interface {
	FetchAll(ctx context.Context) ([]models.RoomRecord, error)
	FetchByID(ctx context.Context, id string) (*models.RoomRecord, error)
	FetchByDatabaseID(ctx context.Context, id int) (*models.RoomRecord, error)
	FetchBySlug(ctx context.Context, slug string) (*models.RoomRecord, error)
}

// RoomRepository yields normalized rooms straight from the source. It is the
// compute side of the cache; nothing here caches.
type RoomRepository interface {
	FindAll(ctx context.Context, lite bool) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	FindBySlug(ctx context.Context, slug string) (*models.Room, error)
}
