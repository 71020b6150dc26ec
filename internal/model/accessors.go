package model

// Field accessors map schema names onto struct fields. They back the form
// controller's name-addressed writes.

func (d *ResumeDocument) scalar(name string) *string {
	switch name {
	case "fullName":
		return &d.FullName
	case "jobTitle":
		return &d.JobTitle
	case "phoneNumber":
		return &d.PhoneNumber
	case "emailAddress":
		return &d.EmailAddress
	case "address":
		return &d.Address
	case "objective":
		return &d.Objective
	case "imageDataUrl":
		return &d.ImageDataURL
	}
	return nil
}

// Scalar returns the value of a personal field.
func (d ResumeDocument) Scalar(name string) (string, bool) {
	p := d.scalar(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetScalar assigns a personal field. It reports false for unknown names.
func (d *ResumeDocument) SetScalar(name, value string) bool {
	p := d.scalar(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (e *EmploymentEntry) Set(name, value string) bool {
	switch name {
	case "companyName":
		e.CompanyName = value
	case "jobTitle":
		e.JobTitle = value
	case "city":
		e.City = value
	case "startYear":
		e.StartYear = Year(value)
	case "endYear":
		e.EndYear = Year(value)
	case "description":
		e.Description = value
	default:
		return false
	}
	return true
}

func (e *EducationEntry) Set(name, value string) bool {
	switch name {
	case "schoolName":
		e.SchoolName = value
	case "degree":
		e.Degree = value
	case "fieldOfStudy":
		e.FieldOfStudy = value
	case "city":
		e.City = value
	case "startYear":
		e.StartYear = Year(value)
	case "endYear":
		e.EndYear = Year(value)
	case "description":
		e.Description = value
	default:
		return false
	}
	return true
}

func (s *SkillEntry) Set(name, value string) bool {
	switch name {
	case "skillTitle":
		s.SkillTitle = value
	case "skillRating":
		s.SkillRating = SkillRating(value)
	default:
		return false
	}
	return true
}

// Len returns the number of entries in a repeatable section.
func (d ResumeDocument) Len(section Section) int {
	switch section {
	case SectionEmployment:
		return len(d.Employment)
	case SectionEducation:
		return len(d.Education)
	case SectionSkills:
		return len(d.Skills)
	}
	return 0
}

// EntryID returns the stable id of the entry at index.
func (d ResumeDocument) EntryID(section Section, index int) string {
	if index < 0 || index >= d.Len(section) {
		return ""
	}
	switch section {
	case SectionEmployment:
		return d.Employment[index].ID
	case SectionEducation:
		return d.Education[index].ID
	case SectionSkills:
		return d.Skills[index].ID
	}
	return ""
}

// IndexOf finds the position of the entry with the given id, or -1.
func (d ResumeDocument) IndexOf(section Section, id string) int {
	if id == "" {
		return -1
	}
	for i := 0; i < d.Len(section); i++ {
		if d.EntryID(section, i) == id {
			return i
		}
	}
	return -1
}

// SetEntryField assigns a field of the entry at index. Callers check bounds.
func (d *ResumeDocument) SetEntryField(section Section, index int, name, value string) bool {
	switch section {
	case SectionEmployment:
		return d.Employment[index].Set(name, value)
	case SectionEducation:
		return d.Education[index].Set(name, value)
	case SectionSkills:
		return d.Skills[index].Set(name, value)
	}
	return false
}

// RemoveAt drops the entry at index, shifting later entries down.
func (d *ResumeDocument) RemoveAt(section Section, index int) {
	switch section {
	case SectionEmployment:
		d.Employment = append(d.Employment[:index:index], d.Employment[index+1:]...)
	case SectionEducation:
		d.Education = append(d.Education[:index:index], d.Education[index+1:]...)
	case SectionSkills:
		d.Skills = append(d.Skills[:index:index], d.Skills[index+1:]...)
	}
}

// AssignIDs gives every entry without an id one from next.
func (d *ResumeDocument) AssignIDs(next func() string) {
	for i := range d.Employment {
		if d.Employment[i].ID == "" {
			d.Employment[i].ID = next()
		}
	}
	for i := range d.Education {
		if d.Education[i].ID == "" {
			d.Education[i].ID = next()
		}
	}
	for i := range d.Skills {
		if d.Skills[i].ID == "" {
			d.Skills[i].ID = next()
		}
	}
}
