package aggregator

import (
	"sort"

	"escaperooms-directory/internal/models"
)

// counter keeps counts in first-seen order so a stable sort by count breaks
// ties by insertion.
type counter struct {
	index  map[string]int
	keys   []string
	counts []int
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

// add returns true the first time key is seen.
func (c *counter) add(key string) bool {
	if i, ok := c.index[key]; ok {
		c.counts[i]++
		return false
	}
	c.index[key] = len(c.keys)
	c.keys = append(c.keys, key)
	c.counts = append(c.counts, 1)
	return true
}

// order returns positions into keys sorted by descending count.
func (c *counter) order() []int {
	idx := make([]int, len(c.keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return c.counts[idx[a]] > c.counts[idx[b]]
	})
	return idx
}

// GroupByState counts rooms per state. Each entry carries the country of the
// first room seen in that state.
func GroupByState(rooms []models.Room) []models.StateCount {
	c := newCounter()
	country := make(map[string]string)
	for _, r := range rooms {
		if r.State == nil {
			continue
		}
		if c.add(*r.State) {
			country[*r.State] = models.Value(r.Country)
		}
	}

	out := make([]models.StateCount, 0, len(c.keys))
	for _, i := range c.order() {
		out = append(out, models.StateCount{State: c.keys[i], Country: country[c.keys[i]], Count: c.counts[i]})
	}
	return out
}

// GroupByCity counts rooms per (city, state) pair so that same-named cities in
// different states stay apart.
func GroupByCity(rooms []models.Room) []models.CityCount {
	c := newCounter()
	pairs := make(map[string]models.CityCount)
	for _, r := range rooms {
		if r.City == nil {
			continue
		}
		key := cityKey(r)
		if c.add(key) {
			pairs[key] = models.CityCount{City: *r.City, State: models.Value(r.State)}
		}
	}

	out := make([]models.CityCount, 0, len(c.keys))
	for _, i := range c.order() {
		cc := pairs[c.keys[i]]
		cc.Count = c.counts[i]
		out = append(out, cc)
	}
	return out
}

func GroupByTheme(rooms []models.Room) []models.ThemeCount {
	c := newCounter()
	for _, r := range rooms {
		if r.Theme != nil {
			c.add(*r.Theme)
		}
	}

	out := make([]models.ThemeCount, 0, len(c.keys))
	for _, i := range c.order() {
		out = append(out, models.ThemeCount{Theme: c.keys[i], Count: c.counts[i]})
	}
	return out
}

func GroupByCountry(rooms []models.Room) []models.CountryCount {
	c := newCounter()
	for _, r := range rooms {
		if r.Country != nil {
			c.add(*r.Country)
		}
	}

	out := make([]models.CountryCount, 0, len(c.keys))
	for _, i := range c.order() {
		out = append(out, models.CountryCount{Country: c.keys[i], Count: c.counts[i]})
	}
	return out
}

func cityKey(r models.Room) string {
	return models.Value(r.City) + ", " + models.Value(r.State)
}
