// Package render turns a résumé document into one of several visual
// templates. Variants are pure: they receive the document explicitly and
// never read or write the store.
package render

import (
	"errors"
	"fmt"
	"sort"

	"github.com/junsantilla/cvalley/internal/model"
)

const (
	// CaptureElementID is the id of the element exports rasterize.
	CaptureElementID = "element-to-capture"
	// ContainerID is the fixed-size A4 page the capture element sits in.
	ContainerID = "a4-container"
)

var ErrUnknownTemplate = errors.New("unknown template")

// TemplateInfo is a catalogue entry.
type TemplateInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// VisualDocument is a rendered template: a standalone HTML page plus the
// facts about it callers and tests look at without parsing markup.
type VisualDocument struct {
	TemplateID string `json:"templateId"`
	// Placeholder is set when there was nothing to render; the page then
	// holds the welcome message and no A4 container.
	Placeholder bool     `json:"placeholder"`
	Headers     []string `json:"headers"`
	Skills      string   `json:"skills,omitempty"`
	HasAvatar   bool     `json:"hasAvatar"`
	HTML        string   `json:"-"`
}

// Variant is one presentation of the document.
type Variant interface {
	ID() string
	Info() TemplateInfo
	Render(doc *model.ResumeDocument, imagePreview string) (*VisualDocument, error)
}

var catalogue = []TemplateInfo{
	{ID: "professional", Title: "Professional", Description: "Organized template with left sidebar.", Category: "Professional"},
	{ID: "simple", Title: "Simple", Description: "Clean with icon and background for each section title.", Category: "Simple"},
	{ID: "web", Title: "Web", Description: "Website inspired template.", Category: "Modern"},
	{ID: "plain", Title: "Plain", Description: "Plain and easy to read template.", Category: "Simple"},
}

var variants = mustLoadVariants()

// All returns every catalogue entry in display order.
func All() []TemplateInfo {
	return append([]TemplateInfo(nil), catalogue...)
}

// Catalogue returns the entries of one category; an empty category means all.
func Catalogue(category string) []TemplateInfo {
	if category == "" {
		return All()
	}
	var out []TemplateInfo
	for _, t := range catalogue {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Categories lists the distinct categories, sorted.
func Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range catalogue {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup returns the variant registered under id.
func Lookup(id string) (Variant, error) {
	v, ok := variants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return v, nil
}
