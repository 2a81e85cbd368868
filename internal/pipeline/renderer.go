package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ppiankov/flagaudit/internal/model"
	"github.com/ppiankov/flagaudit/internal/score"
	"github.com/ppiankov/flagaudit/internal/util"
)

// Renderer turns an audit document into files and terminal output
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// EncodeReport returns the report as indented JSON, without HTML escaping
func EncodeReport(report model.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderJSON writes the report envelope to path
func (r *Renderer) RenderJSON(report model.Report, path string) error {
	data, err := EncodeReport(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return util.WriteFileAtomic(path, data, 0644)
}

// RenderMarkdown writes a human-readable report to path
func (r *Renderer) RenderMarkdown(doc *model.AuditDocument, path string) error {
	return util.WriteFileAtomic(path, []byte(Markdown(doc)), 0644)
}

// RenderLLMMarkdown writes an already rendered LLM summary to path
func (r *Renderer) RenderLLMMarkdown(md, path string) error {
	return util.WriteFileAtomic(path, []byte(md), 0644)
}

// Markdown renders doc as a Markdown report
func Markdown(doc *model.AuditDocument) string {
	var b strings.Builder
	s := doc.Summary

	b.WriteString("# Recipe Tag Audit\n\n")
	if doc.Source != "" {
		fmt.Fprintf(&b, "**Source:** %s  \n", doc.Source)
	}
	if !doc.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "**Generated:** %s  \n", doc.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "**Clean index:** %d/100\n\n", s.Index)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Recipes audited | %d |\n", s.RecipesAudited)
	fmt.Fprintf(&b, "| Recipes with issues | %d |\n", s.RecipesFlagged)
	fmt.Fprintf(&b, "| Issues | %d |\n", s.Issues)
	for _, code := range model.Codes() {
		if n := s.ByCode[code]; n > 0 {
			fmt.Fprintf(&b, "| %s | %d |\n", code, n)
		}
	}
	fmt.Fprintf(&b, "\n_Index formula: %s_\n", s.Formula)

	if len(s.SkippedTags) > 0 {
		b.WriteString("\n### Not validated\n\nThese flag tags do not exist in Mealie:\n\n")
		for _, slug := range s.SkippedTags {
			fmt.Fprintf(&b, "- `%s`\n", slug)
		}
	}

	if len(doc.Failed) > 0 {
		b.WriteString("\n### Failed recipes\n\n")
		for _, slug := range doc.Failed {
			fmt.Fprintf(&b, "- `%s`\n", slug)
		}
	}

	b.WriteString("\n## Issues\n\n")
	slugs := doc.Report.Slugs()
	if len(slugs) == 0 {
		b.WriteString("Every flag tag agrees with its recipe.\n")
		return b.String()
	}

	for _, slug := range slugs {
		fmt.Fprintf(&b, "### %s\n\n", slug)
		b.WriteString("| Tag | Code | Reason |\n|---|---|---|\n")
		for _, v := range doc.Report[slug] {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", v.TagName, v.Code, escapeCell(v.Reason))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderTable prints the summary and the issue list as terminal tables
func (r *Renderer) RenderTable(doc *model.AuditDocument, out io.Writer) {
	s := doc.Summary

	summary := table.NewWriter()
	summary.SetOutputMirror(out)
	summary.SetTitle("Recipe Tag Audit")
	summary.AppendHeader(table.Row{"Metric", "Value"})
	summary.AppendRow(table.Row{"Recipes audited", s.RecipesAudited})
	summary.AppendRow(table.Row{"Recipes with issues", s.RecipesFlagged})
	summary.AppendRow(table.Row{"Issues", s.Issues})
	for _, code := range model.Codes() {
		if n := s.ByCode[code]; n > 0 {
			summary.AppendRow(table.Row{"  " + string(code), n})
		}
	}
	if len(s.SkippedTags) > 0 {
		summary.AppendRow(table.Row{"Flags not validated", len(s.SkippedTags)})
	}
	summary.AppendFooter(table.Row{"Clean index", fmt.Sprintf("%d/100", s.Index)})
	summary.Render()

	if len(s.ByTag) > 0 {
		byTag := table.NewWriter()
		byTag.SetOutputMirror(out)
		byTag.AppendHeader(table.Row{"Flag", "Issues"})
		for _, slug := range score.TopTags(s, -1) {
			byTag.AppendRow(table.Row{slug, s.ByTag[slug]})
		}
		byTag.Render()
	}

	if len(doc.Report) == 0 {
		return
	}

	issues := table.NewWriter()
	issues.SetOutputMirror(out)
	issues.AppendHeader(table.Row{"Recipe", "Tag", "Code", "Reason"})
	for _, slug := range doc.Report.Slugs() {
		for _, v := range doc.Report[slug] {
			issues.AppendRow(table.Row{slug, v.TagName, v.Code, v.Reason})
		}
	}
	issues.Render()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
