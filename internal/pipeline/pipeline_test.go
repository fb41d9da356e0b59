package pipeline_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"autopress/internal/config"
	"autopress/internal/dedup"
	"autopress/internal/discovery"
	"autopress/internal/imaging"
	"autopress/internal/pipeline"
	"autopress/internal/publisher"
	"autopress/internal/seo"
	"autopress/internal/services/wordpress"
	"autopress/internal/store"
	"autopress/internal/taxonomy"
	"autopress/internal/testsupport"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>%s</title>
      <link>%s</link>
      <description>航司宣布新的双倍里程活动。报名需要在官网完成。</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
    </item>
  </channel>
</rss>`

func newFeedServer(t *testing.T, title, link string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, feedTemplate, title, link)
	}))
	t.Cleanup(server.Close)
	return server
}

func newOrchestrator(t *testing.T, cfg *config.Config, st *store.Store) *pipeline.Orchestrator {
	t.Helper()
	return newOrchestratorWithLogger(t, cfg, st, nil)
}

func newOrchestratorWithLogger(t *testing.T, cfg *config.Config, st *store.Store, logger *slog.Logger) *pipeline.Orchestrator {
	t.Helper()
	remote := wordpress.NewClient(cfg)
	resolver := taxonomy.NewResolver(cfg, remote, logger)
	pub := publisher.New(cfg, resolver, remote, logger)
	return pipeline.New(
		cfg,
		st,
		discovery.New(cfg, logger),
		dedup.New(st, logger),
		imaging.New(cfg),
		seo.New(cfg),
		pub,
		logger,
	)
}

func TestRunOnceLocalDraftFlow(t *testing.T) {
	feed := newFeedServer(t, "双倍里程促销", "https://example.com/double-miles")
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(config.FeedSource{Name: "test", URL: feed.URL}))
	st := testsupport.MustOpenStore(t, cfg)

	outcomes, err := newOrchestrator(t, cfg, st).RunOnce(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected one outcome, got %d", len(outcomes))
	}

	outcome := outcomes[0]
	if outcome.Err != nil {
		t.Fatalf("unexpected lead error: %v", outcome.Err)
	}
	if outcome.Status != store.StatusPersisted {
		t.Fatalf("expected persisted lead, got %s", outcome.Status)
	}
	if outcome.Platform != store.PlatformLocal {
		t.Fatalf("expected local draft without credentials, got %s", outcome.Platform)
	}
	if _, err := os.Stat(outcome.Location); err != nil {
		t.Fatalf("expected draft file at reported location: %v", err)
	}

	lead, err := st.FindLeadByURL(context.Background(), "https://example.com/double-miles")
	if err != nil {
		t.Fatalf("FindLeadByURL failed: %v", err)
	}
	if lead == nil || lead.Status != store.StatusPersisted {
		t.Fatalf("unexpected stored lead: %#v", lead)
	}

	evidence, err := st.EvidenceForLead(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("EvidenceForLead failed: %v", err)
	}
	if len(evidence) == 0 {
		t.Fatal("expected persisted evidence")
	}
}

func TestRunOnceRerunCreatesNoDuplicates(t *testing.T) {
	feed := newFeedServer(t, "重复运行测试", "https://example.com/rerun")
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(config.FeedSource{Name: "test", URL: feed.URL}))
	st := testsupport.MustOpenStore(t, cfg)
	orch := newOrchestrator(t, cfg, st)

	ctx := context.Background()
	first, err := orch.RunOnce(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("first RunOnce failed: %v", err)
	}
	if len(first) != 1 || first[0].Err != nil {
		t.Fatalf("unexpected first run outcomes: %#v", first)
	}

	second, err := orch.RunOnce(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("second RunOnce failed: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected dedup to drop the known lead, got %d outcomes", len(second))
	}

	leads, err := st.ListLeads(ctx)
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected a single lead row, got %d", len(leads))
	}
}

func TestRunOnceForceRedoKeepsOneArticle(t *testing.T) {
	feed := newFeedServer(t, "强制重做测试", "https://example.com/force")
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(config.FeedSource{Name: "test", URL: feed.URL}))
	st := testsupport.MustOpenStore(t, cfg)
	orch := newOrchestrator(t, cfg, st)

	ctx := context.Background()
	if _, err := orch.RunOnce(ctx, pipeline.Options{}); err != nil {
		t.Fatalf("first RunOnce failed: %v", err)
	}
	outcomes, err := orch.RunOnce(ctx, pipeline.Options{Force: true})
	if err != nil {
		t.Fatalf("forced RunOnce failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Err != nil {
		t.Fatalf("expected forced redo outcome, got %#v", outcomes)
	}

	lead, err := st.FindLeadByURL(ctx, "https://example.com/force")
	if err != nil {
		t.Fatalf("FindLeadByURL failed: %v", err)
	}
	count, err := st.ArticleCountByLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("ArticleCountByLead failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the slug upsert to keep one article, got %d", count)
	}
}

func TestRunOnceResumesInterruptedLeads(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	orch := newOrchestrator(t, cfg, st)

	ctx := context.Background()
	stuck := testsupport.NewLead(t, st, "https://example.com/stuck", "中断的线索")
	if err := st.UpdateLeadStatus(ctx, stuck.ID, store.StatusWritten); err != nil {
		t.Fatalf("UpdateLeadStatus failed: %v", err)
	}

	outcomes, err := orch.RunOnce(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected the interrupted lead picked up, got %d outcomes", len(outcomes))
	}
	if outcomes[0].Status != store.StatusPersisted {
		t.Fatalf("expected resumed lead persisted, got %s (err %v)", outcomes[0].Status, outcomes[0].Err)
	}
}

func TestRunOnceIsolatesLeadFailures(t *testing.T) {
	// The second lead's title cannot produce a slug, so its seo stage fails.
	good := newFeedServer(t, "正常线索", "https://example.com/good")
	bad := newFeedServer(t, "!!!", "https://example.com/bad")
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(
		config.FeedSource{Name: "good", URL: good.URL},
		config.FeedSource{Name: "bad", URL: bad.URL},
	))
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	outcomes, err := newOrchestrator(t, cfg, st).RunOnce(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected two outcomes, got %d", len(outcomes))
	}

	var persisted, failed int
	for _, outcome := range outcomes {
		switch outcome.Status {
		case store.StatusPersisted:
			persisted++
		case store.StatusFailed:
			failed++
			if outcome.Err == nil {
				t.Fatal("expected error attached to failed outcome")
			}
		}
	}
	if persisted != 1 || failed != 1 {
		t.Fatalf("expected one persisted and one failed lead, got %d/%d", persisted, failed)
	}

	badLead, err := st.FindLeadByURL(ctx, "https://example.com/bad")
	if err != nil {
		t.Fatalf("FindLeadByURL failed: %v", err)
	}
	if badLead.Status != store.StatusFailed || badLead.ErrorMessage == "" {
		t.Fatalf("expected failure recorded on lead, got %#v", badLead)
	}
}

func TestRunOnceRemotePublishFlow(t *testing.T) {
	feed := newFeedServer(t, "远程发布测试", "https://example.com/remote")

	cms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/wp-json/wp/v2/categories", "/wp-json/wp/v2/tags":
			fmt.Fprint(w, `[]`)
		case "/wp-json/wp/v2/media":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id": 5}`)
		case "/wp-json/wp/v2/posts":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id": 77, "link": "https://cms.example.com/remote-post"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(cms.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithFeeds(config.FeedSource{Name: "test", URL: feed.URL}),
		testsupport.WithWordPress(cms.URL, "bot", "secret"))
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	outcomes, err := newOrchestrator(t, cfg, st).RunOnce(ctx, pipeline.Options{})
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Err != nil {
		t.Fatalf("unexpected outcomes: %#v", outcomes)
	}
	if outcomes[0].Platform != store.PlatformWordPress {
		t.Fatalf("expected wordpress publish, got %s", outcomes[0].Platform)
	}
	if outcomes[0].Location != "https://cms.example.com/remote-post" {
		t.Fatalf("unexpected location %s", outcomes[0].Location)
	}

	lead, err := st.FindLeadByURL(ctx, "https://example.com/remote")
	if err != nil {
		t.Fatalf("FindLeadByURL failed: %v", err)
	}
	article, err := st.FindArticleBySlug(ctx, seo.Slugify(lead.Title))
	if err != nil {
		t.Fatalf("FindArticleBySlug failed: %v", err)
	}
	if article == nil {
		t.Fatal("expected article row for remote publish")
	}
	if article.Status != store.ArticlePublished {
		t.Fatalf("expected published article, got %s", article.Status)
	}

	publish, err := st.LatestPublish(ctx, article.ID)
	if err != nil {
		t.Fatalf("LatestPublish failed: %v", err)
	}
	if publish.RemoteID != "77" || publish.Platform != store.PlatformWordPress {
		t.Fatalf("unexpected publish record %#v", publish)
	}

	// Drafts are only written on the local branch.
	entries, err := os.ReadDir(cfg.Paths.OutputDir)
	if err == nil && len(entries) > 0 {
		t.Fatalf("expected no local drafts on remote publish, found %d files in %s",
			len(entries), filepath.Base(cfg.Paths.OutputDir))
	}
}

func TestRunOnceAnnotatesStageLogs(t *testing.T) {
	feed := newFeedServer(t, "双倍里程促销", "https://example.com/stage-logs")
	cfg := testsupport.NewConfig(t, testsupport.WithFeeds(config.FeedSource{Name: "test", URL: feed.URL}))
	st := testsupport.MustOpenStore(t, cfg)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	outcomes, err := newOrchestratorWithLogger(t, cfg, st, logger).RunOnce(context.Background(), pipeline.Options{})
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Err != nil {
		t.Fatalf("unexpected outcomes %#v", outcomes)
	}

	logs := buf.String()
	for _, stage := range []string{"research", "plan", "write", "rules", "imaging", "seo", "publish"} {
		if !strings.Contains(logs, "stage="+stage) {
			t.Fatalf("expected stage %q in logs, got:\n%s", stage, logs)
		}
	}
}
