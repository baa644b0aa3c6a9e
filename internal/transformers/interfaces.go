package transformers

import (
	"escaperooms-directory/internal/models"
)

type RoomTransformer interface {
	Normalize(record models.RoomRecord) models.Room
	NormalizeLite(record models.RoomRecord) models.Room
	NormalizeAll(records []models.RoomRecord, lite bool) []models.Room
}
