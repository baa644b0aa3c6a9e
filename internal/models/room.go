package models

// RoomRecord is the content-source shape of a room listing, as returned by the
// CMS GraphQL endpoint. It only lives between the fetcher and the transformer.
type RoomRecord struct {
	ID         string      `json:"id"`
	DatabaseID int         `json:"databaseId"`
	Slug       string      `json:"slug"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Excerpt    string      `json:"excerpt"`
	Details    RoomDetails `json:"roomDetails"`
	Countries  TermList    `json:"countries"`
	States     TermList    `json:"states"`
	Cities     TermList    `json:"cities"`
	Themes     TermList    `json:"themes"`
	Image      *ImageNode  `json:"featuredImage,omitempty"`
}

// RoomDetails is the custom-field block attached to each record.
type RoomDetails struct {
	Status      string   `json:"status"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	Price       *float64 `json:"price"`
	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"reviewCount"`
	Schedule    string   `json:"schedule"`
	Amenities   []string `json:"amenities"`
}

// TermList is a taxonomy relation; only the first node is meaningful.
type TermList struct {
	Nodes []TermNode `json:"nodes"`
}

type TermNode struct {
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type ImageNode struct {
	Node struct {
		SourceURL string `json:"sourceUrl"`
	} `json:"node"`
}

// First returns the first term name, or "" when the relation is empty.
func (l TermList) First() string {
	if len(l.Nodes) == 0 {
		return ""
	}
	return l.Nodes[0].Name
}

// Room is the normalized entity served to the rendering layer. Optional
// fields are pointers: nil means absent. Description and Excerpt are only
// populated in the full variant.
type Room struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Address     *string  `json:"address,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Website     *string  `json:"website,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Theme       *string  `json:"theme,omitempty"`
	Status      *string  `json:"status,omitempty"`
	City        *string  `json:"city,omitempty"`
	State       *string  `json:"state,omitempty"`
	Country     *string  `json:"country,omitempty"`
	Schedule    *string  `json:"schedule,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	Description *string  `json:"description,omitempty"`
	Excerpt     *string  `json:"excerpt,omitempty"`
}

// Value dereferences an optional field, returning "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// RoomFilter carries the plain filter and pagination parameters accepted from
// the rendering layer. Empty strings mean "no constraint".
type RoomFilter struct {
	Name    string `form:"name" json:"name,omitempty"`
	City    string `form:"city" json:"city,omitempty"`
	State   string `form:"state" json:"state,omitempty"`
	Country string `form:"country" json:"country,omitempty"`
	Theme   string `form:"theme" json:"theme,omitempty"`
	Limit   int    `form:"limit" json:"limit,omitempty" validate:"gte=0,lte=1000"`
	Offset  int    `form:"offset" json:"offset,omitempty" validate:"gte=0"`
}

// ListResult is the { data, error, count } triple returned to list callers.
// Count is the number of matches before pagination. Page renderers get a nil
// Error and empty Data when the collection cannot be loaded.
type ListResult struct {
	Data  []Room `json:"data"`
	Error error  `json:"-"`
	Count int    `json:"count"`
}
