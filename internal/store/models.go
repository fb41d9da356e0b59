package store

import (
	"strings"
	"time"
)

// LeadStatus represents the lifecycle of a lead moving through the pipeline.
type LeadStatus string

const (
	StatusDiscovered       LeadStatus = "discovered"
	StatusIdentified       LeadStatus = "identified"
	StatusEvidenceGathered LeadStatus = "evidence_gathered"
	StatusPlanned          LeadStatus = "planned"
	StatusWritten          LeadStatus = "written"
	StatusRuled            LeadStatus = "ruled"
	StatusImaged           LeadStatus = "imaged"
	StatusSEOPackaged      LeadStatus = "seo_packaged"
	StatusPublished        LeadStatus = "published"
	StatusDrafted          LeadStatus = "drafted"
	StatusPersisted        LeadStatus = "persisted"
	StatusFailed           LeadStatus = "failed"
)

var allStatuses = []LeadStatus{
	StatusDiscovered,
	StatusIdentified,
	StatusEvidenceGathered,
	StatusPlanned,
	StatusWritten,
	StatusRuled,
	StatusImaged,
	StatusSEOPackaged,
	StatusPublished,
	StatusDrafted,
	StatusPersisted,
	StatusFailed,
}

var statusSet = func() map[LeadStatus]struct{} {
	set := make(map[LeadStatus]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// terminalStatuses are the states a lead can legitimately rest in between runs.
var terminalStatuses = map[LeadStatus]struct{}{
	StatusPersisted: {},
	StatusFailed:    {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []LeadStatus {
	cp := make([]LeadStatus, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseLeadStatus converts a string into a known LeadStatus.
func ParseLeadStatus(value string) (LeadStatus, bool) {
	normalized := LeadStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends a lead's run.
func (s LeadStatus) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Lead is a discovered candidate story, keyed by its source URL. A lead is
// created once and never deleted; reprocessing binds to the existing row.
type Lead struct {
	ID           int64
	URL          string
	Title        string
	Source       string
	Summary      string
	PublishedAt  *time.Time
	Score        float64
	Status       LeadStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EvidenceItem is one extracted factual snippet with a stable citation id.
// Evidence is regenerated, not mutated, on each processing attempt.
type EvidenceItem struct {
	ID          int64
	LeadID      int64
	FactID      string
	Text        string
	SourceURL   string
	ExtractedAt time.Time
}

// FAQItem is one question/answer pair attached to an article.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ArticleMeta carries generation metadata with explicit fields. Extra exists
// only for genuinely unstructured additions.
type ArticleMeta struct {
	TitleOptions     []string       `json:"title_options,omitempty"`
	MetaDescriptions []string       `json:"meta_descriptions,omitempty"`
	FAQ              []FAQItem      `json:"faq,omitempty"`
	InternalLinks    []string       `json:"internal_links,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// Article statuses.
const (
	ArticleDraft     = "draft"
	ArticlePublished = "published"
	ArticleExpired   = "expired"
)

// Article is a generated publishable document tied to exactly one lead.
// The slug is derived and unique; reprocessing the same lead updates the
// existing row in place.
type Article struct {
	ID        int64
	LeadID    int64
	Slug      string
	Title     string
	HTML      string
	Excerpt   string
	Status    string
	JSONLD    string
	Meta      ArticleMeta
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImageAsset is the generated cover image for a lead, referenced by a path
// relative to the assets directory.
type ImageAsset struct {
	ID        int64
	LeadID    int64
	Kind      string
	Path      string
	AltText   string
	Width     int
	Height    int
	CreatedAt time.Time
}

// Publish statuses and platforms.
const (
	PublishStatusPublished = "published"
	PublishStatusDraft     = "draft"
	PublishStatusFailed    = "failed"

	PlatformWordPress = "wordpress"
	PlatformLocal     = "local"
)

// Publish records one publish attempt outcome. Multiple rows may exist per
// article; the latest is authoritative for current state.
type Publish struct {
	ID        int64
	ArticleID int64
	Platform  string
	RemoteID  string
	URL       string
	Status    string
	Meta      map[string]any
	CreatedAt time.Time
}

// Outcome bundles every row produced by one lead's pipeline run. SaveOutcome
// persists it as a single transaction.
type Outcome struct {
	Lead     *Lead
	Evidence []EvidenceItem
	Article  *Article
	Cover    *ImageAsset
	Publish  *Publish
}

// StatsSummary aggregates queue counts for diagnostics.
type StatsSummary struct {
	TotalLeads     int
	TotalArticles  int
	TotalPublished int
	ByStatus       map[LeadStatus]int
}
