package repositories

import (
	"strings"

	"escaperooms-directory/pkg/config"
	"escaperooms-directory/pkg/contentsource"
	"escaperooms-directory/pkg/logger"
)

// NewSource picks the record source for the configured endpoint: a file://
// URL reads a local fixture, anything else is the CMS GraphQL endpoint.
func NewSource(cfg config.SourceConfig) RoomSource {
	if strings.HasPrefix(cfg.Endpoint, "file://") {
		logger.GlobalLogger.Printf("Using fixture content source: %s", cfg.Endpoint)
		return NewFixtureSource(cfg.Endpoint)
	}
	logger.GlobalLogger.Printf("Using GraphQL content source: %s", cfg.Endpoint)
	return contentsource.NewClient(contentsource.Options{
		Endpoint:        cfg.Endpoint,
		Token:           cfg.Token,
		PageSize:        cfg.PageSize,
		RequestTimeout:  cfg.RequestTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerOpenFor:  cfg.BreakerOpenFor,
	})
}
