package planner_test

import (
	"testing"

	"autopress/internal/planner"
	"autopress/internal/research"
	"autopress/internal/store"
)

func buildPack(summary string) (*store.Lead, *research.Pack) {
	lead := &store.Lead{
		URL:     "https://example.com/plan",
		Title:   "会员促销活动",
		Summary: summary,
	}
	return lead, research.Gather(lead)
}

func TestBuildDefaultsToDeepPlan(t *testing.T) {
	lead, pack := buildPack("航司推出新的常旅客权益。细则已经公布。")

	plan := planner.Build(lead, pack)
	if plan.ContentType != planner.TypeDeep {
		t.Fatalf("expected deep content type, got %s", plan.ContentType)
	}
	if len(plan.Sections) != 5 {
		t.Fatalf("expected five sections, got %d", len(plan.Sections))
	}
	if plan.Sections[0].Heading != "速览要点" {
		t.Fatalf("unexpected first section %q", plan.Sections[0].Heading)
	}
	if plan.HeroMessage != lead.Title {
		t.Fatalf("expected hero message from title, got %q", plan.HeroMessage)
	}
	if plan.DealDeadline != nil {
		t.Fatal("expected no deadline without markers")
	}
	if len(plan.InternalKeywords) != 5 {
		t.Fatalf("expected five internal keywords, got %d", len(plan.InternalKeywords))
	}
}

func TestBuildFlashForLimitedDeals(t *testing.T) {
	lead, pack := buildPack("Limited time offer for elite members. 活动很快结束。")

	plan := planner.Build(lead, pack)
	if plan.ContentType != planner.TypeFlash {
		t.Fatalf("expected flash content type, got %s", plan.ContentType)
	}
}

func TestBuildDetectsDeadline(t *testing.T) {
	lead, pack := buildPack("促销活动截止到月底。其余条款不变。")

	plan := planner.Build(lead, pack)
	if plan.DealDeadline == nil {
		t.Fatal("expected deadline detected from evidence text")
	}
}
