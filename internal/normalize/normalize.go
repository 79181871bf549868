// Package normalize converts raw help-center articles into the canonical
// Markdown documents the rest of the pipeline operates on.
package normalize

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"kbsync/internal/index"
	"kbsync/internal/zendesk"
)

const maxSlugLen = 50

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Normalizer converts article HTML into sanitized Markdown.
type Normalizer struct {
	policy    *bluemonday.Policy
	plaintext *bluemonday.Policy
	conv      *converter.Converter
}

func New() *Normalizer {
	return &Normalizer{
		policy:    bluemonday.UGCPolicy(),
		plaintext: bluemonday.StrictPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Document normalizes one article. The result is immutable for the rest
// of the run.
func (n *Normalizer) Document(a zendesk.Article) *index.Document {
	id := strconv.FormatInt(a.ID, 10)

	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = "Untitled"
	}

	return &index.Document{
		ID:        id,
		Title:     title,
		Slug:      Slug(title),
		Body:      n.markdown(a.Body, a.HTMLURL),
		SourceURL: a.HTMLURL,
		UpdatedAt: a.UpdatedAt,
	}
}

// Documents normalizes a batch of articles in listing order.
func (n *Normalizer) Documents(articles []zendesk.Article) []*index.Document {
	docs := make([]*index.Document, 0, len(articles))
	for _, a := range articles {
		docs = append(docs, n.Document(a))
	}
	return docs
}

// markdown sanitizes HTML and converts it to Markdown. If conversion
// fails or produces empty output, falls back to the tag-stripped text.
func (n *Normalizer) markdown(html, sourceURL string) string {
	clean := n.policy.Sanitize(html)

	md, err := n.conv.ConvertString(clean, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(md) == "" {
		if err != nil {
			slog.Warn("Markdown conversion failed, using plain text",
				slog.String("url", sourceURL),
				slog.String("error", err.Error()))
		}
		md = n.plaintext.Sanitize(html)
	}

	return tidy(md)
}

// tidy drops boilerplate lines (navigation, ads) and collapses the rest
// into paragraph-separated blocks.
func tidy(markdown string) string {
	var kept []string
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimRight(line, " \t")
		lower := strings.ToLower(line)
		if strings.Contains(lower, "navigation") || strings.Contains(lower, "advertisement") {
			continue
		}
		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

// Slug derives a URL- and filename-safe identifier from a title.
func Slug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}
