// Package aggregator derives filtered subsets, grouped counts and global
// statistics from the one cached room collection. Every function here is a
// pure function of its input and never mutates it.
package aggregator

import (
	"strings"

	"escaperooms-directory/internal/models"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

func fold(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// Filter returns the rooms matching every non-empty field of f. Name, city,
// state and country are folded substring matches; theme must match exactly
// after folding. A room with the field absent never matches a set filter.
func Filter(rooms []models.Room, f models.RoomFilter) []models.Room {
	name, city, state, country, theme := fold(f.Name), fold(f.City), fold(f.State), fold(f.Country), fold(f.Theme)

	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if name != "" && !strings.Contains(fold(r.Name), name) {
			continue
		}
		if !containsOpt(r.City, city) || !containsOpt(r.State, state) || !containsOpt(r.Country, country) {
			continue
		}
		if theme != "" && (r.Theme == nil || fold(*r.Theme) != theme) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsOpt(field *string, want string) bool {
	if want == "" {
		return true
	}
	return field != nil && strings.Contains(fold(*field), want)
}

// FindByID returns the room with the given identifier, or nil.
func FindByID(rooms []models.Room, id string) *models.Room {
	for i := range rooms {
		if rooms[i].ID == id {
			r := rooms[i]
			return &r
		}
	}
	return nil
}

// FindBySlug returns the room with the given slug, or nil. Slugs compare
// case-insensitively.
func FindBySlug(rooms []models.Room, slug string) *models.Room {
	want := fold(slug)
	if want == "" {
		return nil
	}
	for i := range rooms {
		if fold(rooms[i].Slug) == want {
			r := rooms[i]
			return &r
		}
	}
	return nil
}
