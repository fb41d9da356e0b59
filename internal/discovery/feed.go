package discovery

import (
	"encoding/xml"
	"errors"
	"strings"
	"time"
)

// feedEntry is the format-neutral view of one feed item.
type feedEntry struct {
	Title     string
	URL       string
	Summary   string
	Published *time.Time
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

type atomDocument struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string     `xml:"title"`
	Links   []atomLink `xml:"link"`
	Summary string     `xml:"summary"`
	Content string     `xml:"content"`
	Updated string     `xml:"updated"`
	Pub     string     `xml:"published"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

var errUnrecognizedFeed = errors.New("unrecognized feed format")

// parseFeed accepts RSS 2.0 or Atom and returns entries in document order.
func parseFeed(body []byte) ([]feedEntry, error) {
	var rss rssDocument
	if err := xml.Unmarshal(body, &rss); err == nil && len(rss.Channel.Items) > 0 {
		entries := make([]feedEntry, 0, len(rss.Channel.Items))
		for _, item := range rss.Channel.Items {
			entries = append(entries, feedEntry{
				Title:     strings.TrimSpace(item.Title),
				URL:       strings.TrimSpace(item.Link),
				Summary:   strings.TrimSpace(item.Description),
				Published: parseFeedTime(item.PubDate),
			})
		}
		return entries, nil
	}

	var atom atomDocument
	if err := xml.Unmarshal(body, &atom); err == nil && len(atom.Entries) > 0 {
		entries := make([]feedEntry, 0, len(atom.Entries))
		for _, entry := range atom.Entries {
			summary := strings.TrimSpace(entry.Summary)
			if summary == "" {
				summary = strings.TrimSpace(entry.Content)
			}
			published := entry.Pub
			if published == "" {
				published = entry.Updated
			}
			entries = append(entries, feedEntry{
				Title:     strings.TrimSpace(entry.Title),
				URL:       atomEntryURL(entry),
				Summary:   summary,
				Published: parseFeedTime(published),
			})
		}
		return entries, nil
	}

	return nil, errUnrecognizedFeed
}

func atomEntryURL(entry atomEntry) string {
	var fallback string
	for _, link := range entry.Links {
		href := strings.TrimSpace(link.Href)
		if href == "" {
			continue
		}
		if link.Rel == "" || link.Rel == "alternate" {
			return href
		}
		if fallback == "" {
			fallback = href
		}
	}
	return fallback
}

var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05Z",
}

func parseFeedTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range feedTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}
