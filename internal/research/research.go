// Package research extracts citable evidence from a lead's summary text.
package research

import (
	"fmt"
	"strings"
	"time"

	"autopress/internal/store"
)

// maxFacts bounds the evidence per lead; citations beyond five add noise
// without improving the article.
const maxFacts = 5

// sentence terminators for mixed Chinese and latin source text.
const splitChars = "。！？!?.\n"

// Pack couples a lead with its extracted evidence.
type Pack struct {
	Lead  *store.Lead
	Items []store.EvidenceItem
}

// CitationMarkup renders the compact citation string, e.g. "[F1][F2]".
func (p *Pack) CitationMarkup() string {
	var b strings.Builder
	for _, item := range p.Items {
		b.WriteString("[")
		b.WriteString(item.FactID)
		b.WriteString("]")
	}
	return b.String()
}

// Gather splits the lead summary into sentences and assigns stable fact ids
// F1..F5 in order. A summary-less lead yields a single fact from the title,
// so downstream stages always have at least one citation.
func Gather(lead *store.Lead) *Pack {
	sentences := splitSentences(lead.Summary)
	if len(sentences) == 0 {
		sentences = []string{lead.Title}
	}
	if len(sentences) > maxFacts {
		sentences = sentences[:maxFacts]
	}

	now := time.Now().UTC()
	items := make([]store.EvidenceItem, 0, len(sentences))
	for idx, sentence := range sentences {
		items = append(items, store.EvidenceItem{
			LeadID:      lead.ID,
			FactID:      fmt.Sprintf("F%d", idx+1),
			Text:        strings.TrimSpace(sentence),
			SourceURL:   lead.URL,
			ExtractedAt: now,
		})
	}
	return &Pack{Lead: lead, Items: items}
}

func splitSentences(text string) []string {
	if text == "" {
		return nil
	}
	var (
		sentences []string
		buffer    strings.Builder
	)
	flush := func() {
		trimmed := strings.TrimSpace(buffer.String())
		buffer.Reset()
		// Fragments of one or two runes are punctuation residue, not facts.
		if len([]rune(trimmed)) > 2 {
			sentences = append(sentences, trimmed)
		}
	}
	for _, r := range text {
		buffer.WriteRune(r)
		if strings.ContainsRune(splitChars, r) {
			flush()
		}
	}
	flush()
	return sentences
}
