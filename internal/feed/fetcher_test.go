package feed

import (
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <link>https://www.news.example</link>
    <item>
      <guid>tag:news.example,2025:article-1</guid>
      <title>PM announces new federal budget for fiscal year</title>
      <link>https://www.news.example/articles/1</link>
      <description>The government unveiled its annual budget on Monday.</description>
      <pubDate>Mon, 02 Jun 2025 10:30:00 +0500</pubDate>
    </item>
    <item>
      <title>Entry without an identifier keeps its link as guid</title>
      <link>https://other.example/articles/2</link>
    </item>
    <item>
      <title>Entry without a link is skipped</title>
    </item>
  </channel>
</rss>`

func TestParseFeed(t *testing.T) {
	t.Parallel()

	articles, err := ParseFeed(rssFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.GUID != "tag:news.example,2025:article-1" {
		t.Fatalf("unexpected guid: %q", first.GUID)
	}
	if first.SourceDomain != "news.example" {
		t.Fatalf("expected www-stripped lowercase domain, got %q", first.SourceDomain)
	}
	if first.PublishedAt == nil {
		t.Fatalf("expected a published time")
	}
	want := time.Date(2025, 6, 2, 5, 30, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("expected published time in UTC %v, got %v", want, first.PublishedAt)
	}
	if first.PublishedAt.Location() != time.UTC {
		t.Fatalf("published time should be stored in UTC")
	}

	second := articles[1]
	if second.GUID != "https://other.example/articles/2" {
		t.Fatalf("expected link used as guid fallback, got %q", second.GUID)
	}
	if second.PublishedAt != nil {
		t.Fatalf("expected no published time for undated entry")
	}
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ParseFeed("this is not xml"); err == nil {
		t.Fatalf("expected parse error for non-feed input")
	}
}

func TestDomainOf(t *testing.T) {
	t.Parallel()

	if got := domainOf("https://WWW.Dawn.com/news/1"); got != "dawn.com" {
		t.Fatalf("unexpected domain: %q", got)
	}
	if got := domainOf("https://tribune.com.pk/story/2"); got != "tribune.com.pk" {
		t.Fatalf("unexpected domain: %q", got)
	}
	if got := domainOf("::bad::"); got != "" {
		t.Fatalf("expected empty domain for invalid url, got %q", got)
	}
}
