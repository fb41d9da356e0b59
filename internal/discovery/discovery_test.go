package discovery_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"autopress/internal/config"
	"autopress/internal/discovery"
	"autopress/internal/testsupport"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Deals Feed</title>
    <item>
      <title>Older Deal</title>
      <link>https://example.com/older</link>
      <description>An older discount.</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
    </item>
    <item>
      <title>Newer Deal</title>
      <link>https://example.com/newer</link>
      <description>A fresher discount.</description>
      <pubDate>Tue, 03 Jan 2006 15:04:05 +0000</pubDate>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <entry>
    <title>Atom Story</title>
    <link rel="alternate" href="https://example.com/atom-story"/>
    <summary>Atom summary text.</summary>
    <published>2006-01-04T10:00:00Z</published>
  </entry>
</feed>`

func serveXML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDiscoverPicksNewestRSSEntry(t *testing.T) {
	server := serveXML(t, rssFixture)
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(config.FeedSource{
		Name:  "deals",
		URL:   server.URL,
		Score: 0.8,
	}))

	d := discovery.New(cfg, nil)
	leads, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected one lead per feed, got %d", len(leads))
	}
	lead := leads[0]
	if lead.URL != "https://example.com/newer" {
		t.Fatalf("expected newest entry selected, got %s", lead.URL)
	}
	if lead.Source != "deals" || lead.Score != 0.8 {
		t.Fatalf("expected feed identity on lead, got %#v", lead)
	}
	if lead.PublishedAt == nil {
		t.Fatal("expected published time parsed")
	}
}

func TestDiscoverParsesAtom(t *testing.T) {
	server := serveXML(t, atomFixture)
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(config.FeedSource{
		Name: "atom-source",
		URL:  server.URL,
	}))

	d := discovery.New(cfg, nil)
	leads, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected one lead, got %d", len(leads))
	}
	if leads[0].URL != "https://example.com/atom-story" {
		t.Fatalf("unexpected lead url %s", leads[0].URL)
	}
	if leads[0].Summary != "Atom summary text." {
		t.Fatalf("unexpected summary %q", leads[0].Summary)
	}
}

func TestDiscoverSkipsFailingFeed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)
	healthy := serveXML(t, rssFixture)

	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(
		config.FeedSource{Name: "broken", URL: broken.URL},
		config.FeedSource{Name: "healthy", URL: healthy.URL},
	))

	d := discovery.New(cfg, nil)
	leads, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(leads) != 1 || leads[0].Source != "healthy" {
		t.Fatalf("expected only the healthy feed's lead, got %#v", leads)
	}
}

func TestDiscoverAllFeedsFailing(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(
		config.FeedSource{Name: "broken", URL: broken.URL},
	))

	d := discovery.New(cfg, nil)
	if _, err := d.Discover(context.Background()); err == nil {
		t.Fatal("expected error when every feed fails")
	}
}

func TestDiscoverRespectsBatchCap(t *testing.T) {
	first := serveXML(t, rssFixture)
	second := serveXML(t, atomFixture)

	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(
		config.FeedSource{Name: "one", URL: first.URL},
		config.FeedSource{Name: "two", URL: second.URL},
	))
	cfg.Discovery.MaxLeadsPerBatch = 1

	d := discovery.New(cfg, nil)
	leads, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected cap of 1 lead, got %d", len(leads))
	}
}

func TestDiscoverNoFeedsConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	d := discovery.New(cfg, nil)
	leads, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if leads != nil {
		t.Fatalf("expected no leads without feeds, got %#v", leads)
	}
}
