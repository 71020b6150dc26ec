package model

import "unicode/utf8"

// Section names a part of the document. The scalar fields live in SectionPersonal.
type Section string

const (
	SectionPersonal   Section = "personal"
	SectionEmployment Section = "employment"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
)

// Repeatable lists the sections that hold ordered entries.
var Repeatable = []Section{SectionEmployment, SectionEducation, SectionSkills}

// FieldSpec describes one field the form collects. MaxLen 0 means uncapped.
type FieldSpec struct {
	Section  Section
	Name     string
	MaxLen   int
	Optional bool
}

// Fields is the declarative field schema. Every field is optional.
var Fields = []FieldSpec{
	{Section: SectionPersonal, Name: "fullName", MaxLen: 100, Optional: true},
	{Section: SectionPersonal, Name: "jobTitle", MaxLen: 100, Optional: true},
	{Section: SectionPersonal, Name: "phoneNumber", MaxLen: 15, Optional: true},
	{Section: SectionPersonal, Name: "emailAddress", Optional: true},
	{Section: SectionPersonal, Name: "address", MaxLen: 100, Optional: true},
	{Section: SectionPersonal, Name: "objective", MaxLen: 500, Optional: true},
	{Section: SectionPersonal, Name: "imageDataUrl", MaxLen: 500, Optional: true},

	{Section: SectionEmployment, Name: "companyName", MaxLen: 100, Optional: true},
	{Section: SectionEmployment, Name: "jobTitle", MaxLen: 100, Optional: true},
	{Section: SectionEmployment, Name: "city", MaxLen: 100, Optional: true},
	{Section: SectionEmployment, Name: "startYear", Optional: true},
	{Section: SectionEmployment, Name: "endYear", Optional: true},
	{Section: SectionEmployment, Name: "description", Optional: true},

	{Section: SectionEducation, Name: "schoolName", MaxLen: 100, Optional: true},
	{Section: SectionEducation, Name: "degree", MaxLen: 100, Optional: true},
	{Section: SectionEducation, Name: "fieldOfStudy", MaxLen: 100, Optional: true},
	{Section: SectionEducation, Name: "city", MaxLen: 100, Optional: true},
	{Section: SectionEducation, Name: "startYear", Optional: true},
	{Section: SectionEducation, Name: "endYear", Optional: true},
	{Section: SectionEducation, Name: "description", Optional: true},

	{Section: SectionSkills, Name: "skillTitle", MaxLen: 100, Optional: true},
	{Section: SectionSkills, Name: "skillRating", Optional: true},
}

// Lookup finds the FieldSpec for a field of a section.
func Lookup(section Section, name string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Section == section && f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Fits reports whether value respects the length cap, counted in runes.
func (f FieldSpec) Fits(value string) bool {
	return f.MaxLen == 0 || utf8.RuneCountInString(value) <= f.MaxLen
}

// ParseSection maps a section name to a repeatable section.
func ParseSection(s string) (Section, bool) {
	for _, sec := range Repeatable {
		if string(sec) == s {
			return sec, true
		}
	}
	return "", false
}
