// Package planner turns a lead and its evidence into a content outline.
package planner

import (
	"strings"
	"time"

	"autopress/internal/research"
	"autopress/internal/store"
)

// Section is one planned article section with its editorial purpose.
type Section struct {
	Heading string
	Purpose string
}

// ContentPlan is the writer's brief for one lead.
type ContentPlan struct {
	Lead             *store.Lead
	ContentType      string
	Sections         []Section
	InternalKeywords []string
	HeroMessage      string
	DealDeadline     *time.Time
}

// Content types.
const (
	TypeFlash = "flash"
	TypeDeep  = "deep"
)

var defaultSections = []Section{
	{Heading: "速览要点", Purpose: "用3-5个要点概括政策与价值"},
	{Heading: "玩法解析", Purpose: "介绍参与步骤和注意事项"},
	{Heading: "值不值得", Purpose: "通过算账示例评估收益"},
	{Heading: "实用FAQ", Purpose: "常见问题与答复"},
	{Heading: "总结与提醒", Purpose: "呼吁关注更新或截止日期"},
}

var internalKeywords = []string{"航司里程", "信用卡积分", "酒店会籍", "里程票", "旅行攻略", "长程商务舱"}

// deadline markers in evidence text that flag a time-limited deal.
var deadlineMarkers = []string{"截止", "截至"}

// Build derives the content plan. A summary mentioning a limited window makes
// the piece a flash post; evidence mentioning a deadline stamps the plan with
// one so the rules stage can expire the article later.
func Build(lead *store.Lead, pack *research.Pack) *ContentPlan {
	summary := strings.ToLower(lead.Summary)
	contentType := TypeDeep
	if strings.Contains(summary, "limited") || strings.Contains(summary, "结束") {
		contentType = TypeFlash
	}

	var deadline *time.Time
	for _, item := range pack.Items {
		if containsAny(item.Text, deadlineMarkers) {
			now := time.Now().UTC()
			deadline = &now
			break
		}
	}

	sections := make([]Section, len(defaultSections))
	copy(sections, defaultSections)

	return &ContentPlan{
		Lead:             lead,
		ContentType:      contentType,
		Sections:         sections,
		InternalKeywords: internalKeywords[:5],
		HeroMessage:      lead.Title,
		DealDeadline:     deadline,
	}
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
