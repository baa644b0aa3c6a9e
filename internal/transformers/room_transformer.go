package transformers

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"escaperooms-directory/internal/models"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

type roomTransformer struct{}

func NewRoomTransformer() RoomTransformer {
	return &roomTransformer{}
}

// Normalize maps a content-source record to the full Room variant. It never
// fails: anything missing in the record becomes an absent field.
func (t *roomTransformer) Normalize(record models.RoomRecord) models.Room {
	room := t.NormalizeLite(record)
	room.Description = optString(record.Content)
	room.Excerpt = optString(htmlTag.ReplaceAllString(record.Excerpt, ""))
	return room
}

// NormalizeLite is Normalize without the long-form text fields, used for the
// cached collection to keep the stored payload small.
func (t *roomTransformer) NormalizeLite(record models.RoomRecord) models.Room {
	d := record.Details
	room := models.Room{
		ID:          stableID(record),
		Slug:        strings.TrimSpace(record.Slug),
		Name:        strings.TrimSpace(record.Title),
		Address:     optString(d.Address),
		Latitude:    optCoordinate(d.Latitude, 90),
		Longitude:   optCoordinate(d.Longitude, 180),
		Phone:       optString(d.Phone),
		Website:     optString(d.Website),
		Price:       optNonNegative(d.Price),
		Rating:      optRating(d.Rating),
		ReviewCount: optCount(d.ReviewCount),
		Theme:       optString(record.Themes.First()),
		Status:      optString(strings.ToLower(d.Status)),
		City:        optString(record.Cities.First()),
		State:       optString(record.States.First()),
		Country:     optString(record.Countries.First()),
		Schedule:    optString(d.Schedule),
		Amenities:   cleanList(d.Amenities),
	}
	if record.Image != nil {
		room.Image = optString(record.Image.Node.SourceURL)
	}
	if room.Slug == "" {
		room.Slug = Slugify(room.Name)
	}
	return room
}

func (t *roomTransformer) NormalizeAll(records []models.RoomRecord, lite bool) []models.Room {
	rooms := make([]models.Room, 0, len(records))
	for _, r := range records {
		if lite {
			rooms = append(rooms, t.NormalizeLite(r))
		} else {
			rooms = append(rooms, t.Normalize(r))
		}
	}
	return rooms
}

const syntheticIDPrefix = "room-"

// stableID prefers the CMS global id, which survives refetches, and falls back
// to the numeric database id and then the slug.
func stableID(record models.RoomRecord) string {
	if id := strings.TrimSpace(record.ID); id != "" {
		return id
	}
	if record.DatabaseID > 0 {
		return fmt.Sprintf("%s%d", syntheticIDPrefix, record.DatabaseID)
	}
	return syntheticIDPrefix + Slugify(firstNonEmpty(record.Slug, record.Title))
}

// SyntheticRef is what a fallback id was built from: a database id or a slug.
type SyntheticRef struct {
	DatabaseID int
	Slug       string
}

// ParseSyntheticID reports whether id is a fallback id minted by stableID and,
// if so, what it refers to. CMS global ids never carry the prefix.
func ParseSyntheticID(id string) (SyntheticRef, bool) {
	rest, ok := strings.CutPrefix(id, syntheticIDPrefix)
	if !ok || rest == "" {
		return SyntheticRef{}, false
	}
	if n, err := strconv.Atoi(rest); err == nil && n > 0 {
		return SyntheticRef{DatabaseID: n}, true
	}
	return SyntheticRef{Slug: rest}, true
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optCoordinate(v *float64, bound float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.Abs(*v) > bound {
		return nil
	}
	c := *v
	return &c
}

func optNonNegative(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 {
		return nil
	}
	c := *v
	return &c
}

// unfilled rating fields arrive as 0
func optRating(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || *v <= 0 {
		return nil
	}
	c := math.Min(*v, 5)
	return &c
}

func optCount(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	c := *v
	return &c
}

func cleanList(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
