// Package formatter turns matched suggestions into human-readable Word
// comment bodies using category-specific templates.
package formatter

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// templateData is what a comment template sees.
type templateData struct {
	Reason        string
	SuggestedText string
	Confidence    float64
}

// Default templates per category. Most categories carry only the reason plus
// the replacement; academic comments get the richer framing supervisors
// expect. Templates never repeat the category name as a prefix.
var defaultTemplates = map[core.Category]string{
	core.CategoryGrammar:  "{{.Reason}}{{if .SuggestedText}}\n\nVorschlag: {{.SuggestedText}}{{end}}",
	core.CategoryStyle:    "{{.Reason}}{{if .SuggestedText}}\n\nVorschlag: {{.SuggestedText}}{{end}}",
	core.CategoryClarity:  "{{.Reason}}{{if .SuggestedText}}\n\nVerständlicher wäre: {{.SuggestedText}}{{end}}",
	core.CategoryAcademic: "{{.Reason}}{{if .SuggestedText}}\n\nFormulierungsvorschlag: {{.SuggestedText}}{{end}}\n\nHinweis: Bitte prüfen Sie die Formulierung im Kontext wissenschaftlicher Ausdrucksweise.",
}

const genericTemplate = "{{.Reason}}{{if .SuggestedText}}\n\nVorschlag: {{.SuggestedText}}{{end}}"

// Formatter renders FormattedComments. It is a pure function of its inputs:
// formatting the same suggestion twice yields identical text.
type Formatter struct {
	author    string
	templates map[core.Category]*template.Template
	generic   *template.Template
}

// New parses the default templates for the given comment author.
func New(author string) (*Formatter, error) {
	f := &Formatter{
		author:    author,
		templates: make(map[core.Category]*template.Template, len(defaultTemplates)),
	}
	for category, text := range defaultTemplates {
		tmpl, err := template.New(string(category)).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", category, err)
		}
		f.templates[category] = tmpl
	}
	generic, err := template.New("generic").Parse(genericTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse generic template: %w", err)
	}
	f.generic = generic
	return f, nil
}

// Format renders the comment body for a suggestion. An unknown category falls
// back to the generic template; there is no other failure mode.
func (f *Formatter) Format(s *core.Suggestion) core.FormattedComment {
	tmpl, ok := f.templates[s.Category]
	if !ok {
		tmpl = f.generic
	}

	var b strings.Builder
	err := tmpl.Execute(&b, templateData{
		Reason:        strings.TrimSpace(s.Reason),
		SuggestedText: strings.TrimSpace(s.SuggestedText),
		Confidence:    s.Confidence,
	})
	text := strings.TrimSpace(b.String())
	if err != nil || text == "" {
		// Template data is plain strings, so execution cannot realistically
		// fail; an empty reason still deserves a visible comment.
		text = fallbackText(s)
	}

	return core.FormattedComment{
		Text:       text,
		Author:     f.author,
		Suggestion: s,
	}
}

func fallbackText(s *core.Suggestion) string {
	if strings.TrimSpace(s.SuggestedText) != "" {
		return "Vorschlag: " + strings.TrimSpace(s.SuggestedText)
	}
	return "Bitte diese Textstelle überprüfen."
}
