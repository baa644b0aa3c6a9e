package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"escaperooms-directory/internal/models"
	"escaperooms-directory/pkg/contentsource"
	"escaperooms-directory/pkg/metrics"
)

// FixtureSource serves room records from a local JSON file, for offline
// development and pre-rendering without a CMS. The file holds either a bare
// array of records or a captured GraphQL response.
type FixtureSource struct {
	path string
}

func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{path: strings.TrimPrefix(path, "file://")}
}

type fixtureEnvelope struct {
	Data struct {
		Rooms struct {
			Nodes []models.RoomRecord `json:"nodes"`
		} `json:"rooms"`
	} `json:"data"`
}

func (s *FixtureSource) FetchAll(ctx context.Context) ([]models.RoomRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &contentsource.SourceUnavailableError{Op: "read_fixture", Err: err}
	}

	start := time.Now()
	data, err := os.ReadFile(s.path)
	metrics.SourceRequestDuration.WithLabelValues("read_fixture").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SourceErrorsTotal.WithLabelValues("unavailable").Inc()
		return nil, &contentsource.SourceUnavailableError{Op: "read_fixture", Err: err}
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var records []models.RoomRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fixtureError(err)
		}
		return records, nil
	}

	var envelope fixtureEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fixtureError(err)
	}
	return envelope.Data.Rooms.Nodes, nil
}

func (s *FixtureSource) FetchByID(ctx context.Context, id string) (*models.RoomRecord, error) {
	return s.find(ctx, func(r models.RoomRecord) bool { return r.ID == id || fmt.Sprint(r.DatabaseID) == id })
}

func (s *FixtureSource) FetchByDatabaseID(ctx context.Context, id int) (*models.RoomRecord, error) {
	return s.find(ctx, func(r models.RoomRecord) bool { return r.DatabaseID == id })
}

func (s *FixtureSource) FetchBySlug(ctx context.Context, slug string) (*models.RoomRecord, error) {
	return s.find(ctx, func(r models.RoomRecord) bool { return strings.EqualFold(r.Slug, slug) })
}

func (s *FixtureSource) find(ctx context.Context, match func(models.RoomRecord) bool) (*models.RoomRecord, error) {
	records, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if match(records[i]) {
			return &records[i], nil
		}
	}
	return nil, nil
}

func fixtureError(err error) error {
	metrics.SourceErrorsTotal.WithLabelValues("source_error").Inc()
	return &contentsource.SourceError{Op: "read_fixture", Messages: []string{"malformed fixture: " + err.Error()}}
}
