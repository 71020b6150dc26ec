package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/junsantilla/cvalley/internal/model"
)

//go:embed templates/*.html templates/style.css
var templateFS embed.FS

// section keys shared by the templates and the header table of each variant
const (
	secProfile    = "profile"
	secPersonal   = "personal"
	secEmployment = "employment"
	secEducation  = "education"
	secSkills     = "skills"
)

type header struct {
	key   string
	title string
}

type htmlVariant struct {
	info        TemplateInfo
	headers     []header
	avatarShape string
	page        *template.Template
	placeholder *template.Template
	css         template.CSS
}

var funcs = template.FuncMap{
	"join": joinNonEmpty,
}

func mustLoadVariants() map[string]Variant {
	css, err := templateFS.ReadFile("templates/style.css")
	if err != nil {
		panic(err)
	}
	base := template.Must(template.New("cv").Funcs(funcs).ParseFS(templateFS, "templates/layout.html"))

	layouts := map[string]struct {
		headers     []header
		avatarShape string
	}{
		"professional": {
			headers: []header{
				{secProfile, "Profile:"},
				{secEmployment, "Employment History:"},
				{secEducation, "Education:"},
				{secSkills, "Skills:"},
			},
			avatarShape: "round",
		},
		"simple": {
			headers: []header{
				{secPersonal, "Personal Details"},
				{secEmployment, "Employment History"},
				{secEducation, "Education"},
				{secSkills, "Skills"},
			},
			avatarShape: "round",
		},
		"plain": {
			headers: []header{
				{secPersonal, "Personal Details"},
				{secEmployment, "Employment History"},
				{secEducation, "Education"},
				{secSkills, "Skills"},
			},
			avatarShape: "square",
		},
		"web": {
			headers: []header{
				{secEmployment, "Employment History"},
				{secEducation, "Education"},
				{secSkills, "Skills"},
			},
			avatarShape: "round",
		},
	}

	out := make(map[string]Variant, len(catalogue))
	for _, info := range catalogue {
		l, ok := layouts[info.ID]
		if !ok {
			panic(fmt.Sprintf("render: no layout for template %q", info.ID))
		}
		t := template.Must(template.Must(base.Clone()).ParseFS(templateFS, "templates/"+info.ID+".html"))
		out[info.ID] = &htmlVariant{
			info:        info,
			headers:     l.headers,
			avatarShape: l.avatarShape,
			page:        t.Lookup("layout"),
			placeholder: t.Lookup("placeholder"),
			css:         template.CSS(css),
		}
	}
	return out
}

func (v *htmlVariant) ID() string         { return v.info.ID }
func (v *htmlVariant) Info() TemplateInfo { return v.info }

// Render lays doc out. A nil document, or a blank one with no image, renders
// the welcome placeholder.
func (v *htmlVariant) Render(doc *model.ResumeDocument, imagePreview string) (*VisualDocument, error) {
	if imagePreview == "" && doc != nil {
		imagePreview = doc.ImageDataURL
	}
	if doc == nil || (doc.IsBlank() && imagePreview == "") {
		var buf bytes.Buffer
		if err := v.placeholder.Execute(&buf, v.newView(model.Empty(), "")); err != nil {
			return nil, fmt.Errorf("render %s placeholder: %w", v.info.ID, err)
		}
		return &VisualDocument{TemplateID: v.info.ID, Placeholder: true, Headers: []string{}, HTML: buf.String()}, nil
	}

	data := v.newView(*doc, imagePreview)
	var buf bytes.Buffer
	if err := v.page.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", v.info.ID, err)
	}

	headers := []string{}
	for _, h := range v.headers {
		if data.Show(h.key) {
			headers = append(headers, h.title)
		}
	}
	return &VisualDocument{
		TemplateID: v.info.ID,
		Headers:    headers,
		Skills:     data.Skills,
		HasAvatar:  data.Image != "",
		HTML:       buf.String(),
	}, nil
}

// view is what the templates execute against.
type view struct {
	ID          string
	Title       string
	CSS         template.CSS
	Doc         model.ResumeDocument
	Image       template.URL
	AvatarShape string
	Employment  []model.EmploymentEntry
	Education   []model.EducationEntry
	Skills      string

	headers []header
}

func (v *htmlVariant) newView(doc model.ResumeDocument, image string) *view {
	out := &view{
		ID:          v.info.ID,
		Title:       pageTitle(doc),
		CSS:         v.css,
		Doc:         doc,
		Image:       imageURL(image),
		AvatarShape: v.avatarShape,
		Skills:      JoinSkills(doc.Skills),
		headers:     v.headers,
	}
	for _, e := range doc.Employment {
		if e.Present() {
			out.Employment = append(out.Employment, e)
		}
	}
	for _, e := range doc.Education {
		if e.Present() {
			out.Education = append(out.Education, e)
		}
	}
	return out
}

// Show reports whether the section has anything present and the variant
// has a header for it.
func (d *view) Show(key string) bool {
	if d.Header(key) == "" {
		return false
	}
	switch key {
	case secProfile:
		return strings.TrimSpace(d.Doc.Objective) != ""
	case secPersonal:
		return strings.TrimSpace(d.Doc.JobTitle+d.Doc.PhoneNumber+d.Doc.EmailAddress+d.Doc.Address) != ""
	case secEmployment:
		return len(d.Employment) > 0
	case secEducation:
		return len(d.Education) > 0
	case secSkills:
		return d.Skills != ""
	}
	return false
}

func (d *view) Header(key string) string {
	for _, h := range d.headers {
		if h.key == key {
			return h.title
		}
	}
	return ""
}

// JoinSkills renders present skills as one comma-separated line. Rated
// skills read "Title (Rating)".
func JoinSkills(skills []model.SkillEntry) string {
	labels := make([]string, 0, len(skills))
	for _, s := range skills {
		if !s.Present() {
			continue
		}
		title := strings.TrimSpace(s.SkillTitle)
		switch {
		case s.SkillRating == model.RatingNone:
			labels = append(labels, title)
		case title == "":
			labels = append(labels, string(s.SkillRating))
		default:
			labels = append(labels, fmt.Sprintf("%s (%s)", title, s.SkillRating))
		}
	}
	return strings.Join(labels, ", ")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// imageURL admits data and http(s) image sources; anything else collapses
// the avatar slot.
func imageURL(src string) template.URL {
	switch {
	case strings.HasPrefix(src, "data:image/"),
		strings.HasPrefix(src, "https://"),
		strings.HasPrefix(src, "http://"):
		return template.URL(src)
	}
	return ""
}

func pageTitle(doc model.ResumeDocument) string {
	if name := strings.TrimSpace(doc.FullName); name != "" {
		return name + " - CV"
	}
	return "CV"
}
