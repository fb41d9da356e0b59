package testsupport

import (
	"context"
	"testing"
	"time"

	"autopress/internal/config"
	"autopress/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewLead inserts a lead for tests using the provided store.
func NewLead(t testing.TB, st *store.Store, url, title string) *store.Lead {
	t.Helper()

	lead, err := st.EnsureLead(context.Background(), &store.Lead{
		URL:    url,
		Title:  title,
		Source: "test-feed",
		Score:  1,
	})
	if err != nil {
		t.Fatalf("store.EnsureLead: %v", err)
	}
	return lead
}

// SampleOutcome builds a complete persisted outcome for a lead so store and
// pipeline tests share one realistic fixture shape.
func SampleOutcome(lead *store.Lead, slug string) *store.Outcome {
	extracted := time.Now().UTC()
	return &store.Outcome{
		Lead: lead,
		Evidence: []store.EvidenceItem{
			{FactID: "F1", Text: "First verified fact.", SourceURL: lead.URL, ExtractedAt: extracted},
			{FactID: "F2", Text: "Second verified fact.", SourceURL: lead.URL, ExtractedAt: extracted},
		},
		Article: &store.Article{
			LeadID:  lead.ID,
			Slug:    slug,
			Title:   lead.Title,
			HTML:    "<article><p>Body.</p></article>",
			Excerpt: "Body.",
		},
		Cover: &store.ImageAsset{
			LeadID:  lead.ID,
			Kind:    "cover",
			Path:    slug + ".png",
			AltText: lead.Title,
			Width:   1200,
			Height:  630,
		},
		Publish: &store.Publish{
			Platform: store.PlatformLocal,
			Status:   store.PublishStatusDraft,
		},
	}
}
