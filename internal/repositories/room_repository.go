package repositories

import (
	"context"
	"time"

	"escaperooms-directory/internal/models"
	"escaperooms-directory/internal/transformers"
	"escaperooms-directory/pkg/logger"
)

type roomRepository struct {
	source RoomSource
	trans  transformers.RoomTransformer
}

func NewRoomRepository(source RoomSource, trans transformers.RoomTransformer) RoomRepository {
	return &roomRepository{
		source: source,
		trans:  trans,
	}
}

func (r *roomRepository) FindAll(ctx context.Context, lite bool) ([]models.Room, error) {
	start := time.Now()
	records, err := r.source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	rooms := r.trans.NormalizeAll(records, lite)
	logger.GlobalLogger.Printf("Loaded %d rooms from source (lite=%t) in %s", len(rooms), lite, time.Since(start).Round(time.Millisecond))
	return rooms, nil
}

// FindByID resolves fallback ids minted by the transformer through the lookup
// they were derived from; only CMS global ids go to the ID lookup.
func (r *roomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if ref, ok := transformers.ParseSyntheticID(id); ok {
		if ref.DatabaseID > 0 {
			return r.normalize(r.source.FetchByDatabaseID(ctx, ref.DatabaseID))
		}
		return r.FindBySlug(ctx, ref.Slug)
	}
	return r.normalize(r.source.FetchByID(ctx, id))
}

func (r *roomRepository) FindBySlug(ctx context.Context, slug string) (*models.Room, error) {
	return r.normalize(r.source.FetchBySlug(ctx, slug))
}

func (r *roomRepository) normalize(record *models.RoomRecord, err error) (*models.Room, error) {
	if err != nil || record == nil {
		return nil, err
	}
	room := r.trans.Normalize(*record)
	return &room, nil
}

