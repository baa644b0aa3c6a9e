package aggregator

import "escaperooms-directory/internal/models"

// Paginate returns rooms[offset:offset+limit]. A non-positive limit means
// "everything from offset on"; an offset past the end yields an empty slice.
func Paginate(rooms []models.Room, limit, offset int) []models.Room {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rooms) {
		return []models.Room{}
	}
	end := len(rooms)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := make([]models.Room, end-offset)
	copy(page, rooms[offset:end])
	return page
}
