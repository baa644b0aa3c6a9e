package utils

import (
	"fmt"
	"net/url"

	"escaperooms-directory/internal/models"
)

func BuildPaginationURL(baseURL string, offset, limit int, params url.Values) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		u = &url.URL{Path: baseURL}
	}
	q := url.Values{}
	q.Set("offset", fmt.Sprintf("%d", offset))
	q.Set("limit", fmt.Sprintf("%d", limit))
	for key, values := range params {
		if key != "offset" && key != "limit" {
			for _, value := range values {
				q.Add(key, value)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// BuildPaginationMeta fills next and prev links for a page of a result of
// total items. Filters in params are carried over into both links.
func BuildPaginationMeta(baseURL string, total, offset, limit int, params url.Values) models.PaginationMeta {
	meta := models.PaginationMeta{
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}
	if limit <= 0 {
		return meta
	}
	if offset+limit < total {
		next := BuildPaginationURL(baseURL, offset+limit, limit, params)
		meta.Next = &next
	}
	if offset > 0 {
		prevOffset := offset - limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev := BuildPaginationURL(baseURL, prevOffset, limit, params)
		meta.Prev = &prev
	}
	return meta
}
