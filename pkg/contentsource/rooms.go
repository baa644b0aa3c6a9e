package contentsource

import (
	"context"
	"fmt"
	"strconv"

	"escaperooms-directory/internal/models"
	"escaperooms-directory/pkg/logger"
	"escaperooms-directory/pkg/metrics"
)

// Page is one slice of the cursor-paginated room collection.
type Page struct {
	Records     []models.RoomRecord
	HasNextPage bool
	EndCursor   string
}

type roomsPageData struct {
	Rooms struct {
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
		Nodes []models.RoomRecord `json:"nodes"`
	} `json:"rooms"`
}

type roomData struct {
	Room *models.RoomRecord `json:"room"`
}

// FetchPage requests up to first records after the opaque cursor. An empty
// cursor starts from the beginning.
func (c *Client) FetchPage(ctx context.Context, first int, after string) (Page, error) {
	vars := map[string]interface{}{"first": first, "after": nil}
	if after != "" {
		vars["after"] = after
	}

	var data roomsPageData
	if err := c.execute(ctx, "fetch_page", roomsPageQuery, vars, &data); err != nil {
		return Page{}, err
	}
	return Page{
		Records:     data.Rooms.Nodes,
		HasNextPage: data.Rooms.PageInfo.HasNextPage,
		EndCursor:   data.Rooms.PageInfo.EndCursor,
	}, nil
}

// FetchAll walks the pagination until the source reports no further pages and
// returns every record in the order received. Nothing is retried here.
func (c *Client) FetchAll(ctx context.Context) ([]models.RoomRecord, error) {
	var (
		all   []models.RoomRecord
		after string
		seen  = make(map[string]struct{})
	)

	for page := 1; ; page++ {
		p, err := c.FetchPage(ctx, c.pageSize, after)
		if err != nil {
			logger.GlobalLogger.Errorf("Fetch all rooms failed: page=%d, fetched=%d, error=%v", page, len(all), err)
			return nil, err
		}
		all = append(all, p.Records...)
		metrics.SourceRecordsFetched.Add(float64(len(p.Records)))
		logger.GlobalLogger.Debugf("Fetched rooms page: page=%d, records=%d, has_next=%t", page, len(p.Records), p.HasNextPage)

		if !p.HasNextPage {
			break
		}
		// a cursor that does not advance would loop forever
		if _, dup := seen[p.EndCursor]; dup || p.EndCursor == "" {
			return nil, &SourceError{Op: "fetch_all", Messages: []string{fmt.Sprintf("pagination cursor did not advance after page %d", page)}}
		}
		seen[p.EndCursor] = struct{}{}
		after = p.EndCursor
	}

	logger.GlobalLogger.Printf("Fetched %d rooms from content source", len(all))
	return all, nil
}

// FetchByID looks a single room up by its global identifier. A missing room
// yields nil, nil.
func (c *Client) FetchByID(ctx context.Context, id string) (*models.RoomRecord, error) {
	return c.fetchOne(ctx, "fetch_by_id", id, idTypeGlobal)
}

// FetchByDatabaseID looks a single room up by its numeric database id.
func (c *Client) FetchByDatabaseID(ctx context.Context, id int) (*models.RoomRecord, error) {
	return c.fetchOne(ctx, "fetch_by_database_id", strconv.Itoa(id), idTypeDatabase)
}

// FetchBySlug looks a single room up by its human-readable slug.
func (c *Client) FetchBySlug(ctx context.Context, slug string) (*models.RoomRecord, error) {
	return c.fetchOne(ctx, "fetch_by_slug", slug, idTypeSlug)
}

func (c *Client) fetchOne(ctx context.Context, op, id, idType string) (*models.RoomRecord, error) {
	var data roomData
	vars := map[string]interface{}{"id": id, "idType": idType}
	if err := c.execute(ctx, op, roomByIDQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Room, nil
}
