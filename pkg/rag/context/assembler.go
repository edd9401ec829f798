package context

import (
	"fmt"
	"log"
	"strings"
	"time"

	"brandpulse-be/pkg/store"
)

// ContextItem is one retrieved record rendered for the generation prompt,
// keeping the metadata the citation layer needs.
type ContextItem struct {
	ContentID   string
	ContentType string
	Source      string
	Date        time.Time
	Similarity  float64
	Rendered    string
	Preview     string
}

// Bundle is the assembled grounding context, in rank order.
type Bundle struct {
	Items []ContextItem
}

func (b *Bundle) Empty() bool {
	return b == nil || len(b.Items) == 0
}

const previewLength = 160

// Assembler turns ranked retrieval results into the grounding bundle. Each
// content type renders differently: pain points surface their keyword
// cluster and metrics, threads and insights surface title and body.
type Assembler struct {
	maxItems int
	logger   *log.Logger
}

func NewAssembler(maxItems int, logger *log.Logger) *Assembler {
	if maxItems <= 0 {
		maxItems = 10
	}
	return &Assembler{
		maxItems: maxItems,
		logger:   logger,
	}
}

// Assemble renders candidates in their given rank order, up to maxItems.
func (a *Assembler) Assemble(candidates []store.RetrievedContent) *Bundle {
	bundle := &Bundle{}

	for _, c := range candidates {
		if len(bundle.Items) >= a.maxItems {
			break
		}
		rendered := a.render(&c)
		bundle.Items = append(bundle.Items, ContextItem{
			ContentID:   c.ID,
			ContentType: c.ContentType,
			Source:      c.Source,
			Date:        c.PublishedAt,
			Similarity:  c.Similarity,
			Rendered:    rendered,
			Preview:     preview(c.Title, c.Body),
		})
	}

	a.logger.Printf("[CONTEXT] Assembled %d of %d candidates", len(bundle.Items), len(candidates))
	return bundle
}

func (a *Assembler) render(c *store.RetrievedContent) string {
	var sb strings.Builder

	switch c.ContentType {
	case store.ContentTypePainPoint:
		sb.WriteString(fmt.Sprintf("[pain_point] %s\n", c.Title))
		if len(c.Keywords) > 0 {
			sb.WriteString(fmt.Sprintf("Keywords: %s\n", strings.Join(c.Keywords, ", ")))
		}
		sb.WriteString(fmt.Sprintf("Mentions: %d | Heat: %.1f\n", c.MentionCount, c.HeatScore))
		if c.Body != "" {
			sb.WriteString(c.Body)
			sb.WriteString("\n")
		}
	case store.ContentTypeInsight:
		sb.WriteString(fmt.Sprintf("[insight] %s\n", c.Title))
		sb.WriteString(c.Body)
		sb.WriteString("\n")
	default:
		// Community threads and anything future default to title+body.
		sb.WriteString(fmt.Sprintf("[%s] %s\n", c.ContentType, c.Title))
		sb.WriteString(c.Body)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Source: %s | Published: %s",
		c.Source, c.PublishedAt.Format("2006-01-02")))
	return sb.String()
}

// preview produces the short citation snippet shown to the end user.
func preview(title, body string) string {
	text := strings.TrimSpace(title)
	if body != "" {
		if text != "" {
			text += ": "
		}
		text += strings.TrimSpace(body)
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return strings.TrimSpace(string(runes[:previewLength])) + "..."
}
