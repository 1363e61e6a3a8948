package webdoc

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/c360studio/tracegraph/source"
)

// Ingester fetches a remote requirement page and turns it into a
// requirements-domain source unit ready for the parser pipeline.
type Ingester struct {
	fetcher   *Fetcher
	converter *Converter
	logger    *slog.Logger
}

// NewIngester creates an ingester. maxBodyBytes and allowPrivate come
// from the fetch configuration.
func NewIngester(timeout time.Duration, maxBodyBytes int64, allowPrivate bool, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		fetcher:   NewFetcher(timeout, maxBodyBytes, allowPrivate),
		converter: NewConverter(),
		logger:    logger,
	}
}

// Ingest fetches rawURL and converts it into a source unit. The unit
// path is the web:<slug> form derived from the URL.
func (i *Ingester) Ingest(ctx context.Context, rawURL string) (*source.Unit, error) {
	result, err := i.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	pageURL, _ := url.Parse(rawURL)
	converted, err := i.converter.Convert(result.Body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", rawURL, err)
	}

	i.logger.Info("fetched requirement page",
		slog.String("url", rawURL),
		slog.String("title", converted.Title),
		slog.Int("bytes", len(result.Body)))
	return source.NewUnit(UnitPath(rawURL), source.DomainRequirements, converted.Markdown), nil
}
