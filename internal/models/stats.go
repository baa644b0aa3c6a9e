package models

type StateCount struct {
	State   string `json:"state"`
	Country string `json:"country,omitempty"`
	Count   int    `json:"count"`
}

type CityCount struct {
	City  string `json:"city"`
	State string `json:"state,omitempty"`
	Count int    `json:"count"`
}

type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// CountryStats summarises one country of the directory.
type CountryStats struct {
	Country string `json:"country"`
	Rooms   int    `json:"rooms"`
	States  int    `json:"states"`
	Cities  int    `json:"cities"`
}

// DatabaseStats are the global figures shown on the landing page.
// AverageRating is 0 when no room carries a rating.
type DatabaseStats struct {
	TotalRooms     int     `json:"total_rooms"`
	TotalCities    int     `json:"total_cities"`
	TotalStates    int     `json:"total_states"`
	TotalCountries int     `json:"total_countries"`
	RatedRooms     int     `json:"rated_rooms"`
	AverageRating  float64 `json:"average_rating"`
}

type PaginationMeta struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
	Next   *string `json:"next,omitempty"`
	Prev   *string `json:"prev,omitempty"`
}

type PaginatedRoomsResponse struct {
	Data []Room         `json:"data"`
	Meta PaginationMeta `json:"meta"`
}
