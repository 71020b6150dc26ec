package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SchemaVersion is the version tag written with every stored document.
const SchemaVersion = 2

// Year is a free-text year. Older stored documents carry plain JSON numbers,
// so it decodes both.
type Year string

func (y *Year) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*y = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*y = Year(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*y = Year(n.String())
	return nil
}

// SkillRating is one of Beginner, Intermediate, Advanced, Expert. The zero
// value means the skill is unrated.
type SkillRating string

const (
	RatingNone         SkillRating = ""
	RatingBeginner     SkillRating = "Beginner"
	RatingIntermediate SkillRating = "Intermediate"
	RatingAdvanced     SkillRating = "Advanced"
	RatingExpert       SkillRating = "Expert"
)

// Ratings lists the accepted non-empty ratings in ascending order.
var Ratings = []SkillRating{RatingBeginner, RatingIntermediate, RatingAdvanced, RatingExpert}

func (r SkillRating) Valid() bool {
	if r == RatingNone {
		return true
	}
	for _, v := range Ratings {
		if r == v {
			return true
		}
	}
	return false
}

type EmploymentEntry struct {
	ID          string `json:"id,omitempty"`
	CompanyName string `json:"companyName"`
	JobTitle    string `json:"jobTitle"`
	City        string `json:"city"`
	StartYear   Year   `json:"startYear"`
	EndYear     Year   `json:"endYear"`
	Description string `json:"description"`
}

type EducationEntry struct {
	ID           string `json:"id,omitempty"`
	SchoolName   string `json:"schoolName"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	City         string `json:"city"`
	StartYear    Year   `json:"startYear"`
	EndYear      Year   `json:"endYear"`
	Description  string `json:"description"`
}

type SkillEntry struct {
	ID          string      `json:"id,omitempty"`
	SkillTitle  string      `json:"skillTitle"`
	SkillRating SkillRating `json:"skillRating,omitempty"`
}

// ResumeDocument is the single persisted entity. The three sequences are
// never nil once the document went through Normalize.
type ResumeDocument struct {
	SchemaVersion int               `json:"schemaVersion"`
	FullName      string            `json:"fullName"`
	JobTitle      string            `json:"jobTitle"`
	PhoneNumber   string            `json:"phoneNumber"`
	EmailAddress  string            `json:"emailAddress"`
	Address       string            `json:"address"`
	Objective     string            `json:"objective"`
	ImageDataURL  string            `json:"imageDataUrl,omitempty"`
	Employment    []EmploymentEntry `json:"employment"`
	Education     []EducationEntry  `json:"education"`
	Skills        []SkillEntry      `json:"skills"`
}

// Empty returns the all-empty default document.
func Empty() ResumeDocument {
	return ResumeDocument{
		SchemaVersion: SchemaVersion,
		Employment:    []EmploymentEntry{},
		Education:     []EducationEntry{},
		Skills:        []SkillEntry{},
	}
}

// Normalize replaces nil sequences with empty ones and stamps the version.
func (d *ResumeDocument) Normalize() {
	if d.Employment == nil {
		d.Employment = []EmploymentEntry{}
	}
	if d.Education == nil {
		d.Education = []EducationEntry{}
	}
	if d.Skills == nil {
		d.Skills = []SkillEntry{}
	}
	d.SchemaVersion = SchemaVersion
}

// Clone returns a deep copy; sequences of the copy never alias the receiver.
func (d ResumeDocument) Clone() ResumeDocument {
	out := d
	out.Employment = append(make([]EmploymentEntry, 0, len(d.Employment)), d.Employment...)
	out.Education = append(make([]EducationEntry, 0, len(d.Education)), d.Education...)
	out.Skills = append(make([]SkillEntry, 0, len(d.Skills)), d.Skills...)
	return out
}

func present(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return true
		}
	}
	return false
}

func (e EmploymentEntry) Present() bool {
	return present(e.CompanyName, e.JobTitle, e.City, string(e.StartYear), string(e.EndYear), e.Description)
}

func (e EducationEntry) Present() bool {
	return present(e.SchoolName, e.Degree, e.FieldOfStudy, e.City, string(e.StartYear), string(e.EndYear), e.Description)
}

func (s SkillEntry) Present() bool {
	return present(s.SkillTitle, string(s.SkillRating))
}

func (d ResumeDocument) HasEmployment() bool {
	for _, e := range d.Employment {
		if e.Present() {
			return true
		}
	}
	return false
}

func (d ResumeDocument) HasEducation() bool {
	for _, e := range d.Education {
		if e.Present() {
			return true
		}
	}
	return false
}

func (d ResumeDocument) HasSkills() bool {
	for _, s := range d.Skills {
		if s.Present() {
			return true
		}
	}
	return false
}

// IsBlank reports whether nothing in the document would render.
func (d ResumeDocument) IsBlank() bool {
	if present(d.FullName, d.JobTitle, d.PhoneNumber, d.EmailAddress, d.Address, d.Objective, d.ImageDataURL) {
		return false
	}
	return !d.HasEmployment() && !d.HasEducation() && !d.HasSkills()
}

// String renders a year for display.
func (y Year) String() string { return string(y) }
