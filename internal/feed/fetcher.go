// Package feed fetches syndication feeds and maps their entries into
// pipeline articles.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"horse.fit/feeder/internal/feeder"
	"horse.fit/feeder/internal/langdetect"
)

const DefaultFetchTimeout = 30 * time.Second

// Fetcher downloads RSS and Atom feeds with gofeed and converts entries
// into articles. Per-feed failures are logged and skipped so one dead
// source does not starve the run.
type Fetcher struct {
	parser *gofeed.Parser
	logger zerolog.Logger
}

func NewFetcher(timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	parser := gofeed.NewParser()
	parser.UserAgent = "feeder/1.0"
	return &Fetcher{
		parser: parser,
		logger: logger,
	}
}

// FetchAll retrieves every feed URL and returns the combined articles in
// feed order.
func (f *Fetcher) FetchAll(ctx context.Context, feedURLs []string) []*feeder.Article {
	var articles []*feeder.Article
	for _, feedURL := range feedURLs {
		fetched, err := f.fetchOne(ctx, feedURL)
		if err != nil {
			f.logger.Warn().Err(err).Str("feed_url", feedURL).Msg("feed fetch failed, skipping")
			continue
		}
		f.logger.Debug().
			Str("feed_url", feedURL).
			Int("entries", len(fetched)).
			Msg("feed fetched")
		articles = append(articles, fetched...)
	}
	return articles
}

func (f *Fetcher) fetchOne(ctx context.Context, feedURL string) ([]*feeder.Article, error) {
	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	return mapItems(parsed.Items), nil
}

// ParseFeed converts a raw feed body into articles. Split out from the HTTP
// path so mapping can be tested against fixture strings.
func ParseFeed(body string) ([]*feeder.Article, error) {
	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return mapItems(parsed.Items), nil
}

func mapItems(items []*gofeed.Item) []*feeder.Article {
	articles := make([]*feeder.Article, 0, len(items))
	for _, item := range items {
		article := mapItem(item)
		if article == nil {
			continue
		}
		articles = append(articles, article)
	}
	return articles
}

// mapItem builds an article from one feed entry. Entries without a link are
// dropped since the link doubles as the GUID fallback and the domain source.
func mapItem(item *gofeed.Item) *feeder.Article {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return nil
	}

	guid := strings.TrimSpace(item.GUID)
	if guid == "" {
		guid = link
	}

	var publishedAt *time.Time
	if item.PublishedParsed != nil {
		utc := item.PublishedParsed.UTC()
		publishedAt = &utc
	} else if item.UpdatedParsed != nil {
		utc := item.UpdatedParsed.UTC()
		publishedAt = &utc
	}

	title := strings.TrimSpace(item.Title)
	description := strings.TrimSpace(item.Description)

	return &feeder.Article{
		GUID:         guid,
		Title:        title,
		Description:  description,
		Link:         link,
		SourceDomain: domainOf(link),
		Language:     langdetect.DetectISO6391(title + " " + description),
		PublishedAt:  publishedAt,
	}
}

func domainOf(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}
