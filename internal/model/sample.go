package model

// Sample returns the document behind "load sample data". Entry ids are left
// empty; whoever loads it assigns them.
func Sample() ResumeDocument {
	return ResumeDocument{
		SchemaVersion: SchemaVersion,
		FullName:      "John Doe",
		JobTitle:      "Software Developer",
		PhoneNumber:   "123-456-7890",
		EmailAddress:  "john.doe@example.com",
		Address:       "123 Main Street, City, Country",
		Objective:     "A highly motivated software developer with a passion for creating innovative solutions and a track record of shipping maintainable web applications.",
		Employment: []EmploymentEntry{
			{
				CompanyName: "ABC Inc.",
				JobTitle:    "Software Engineer",
				City:        "City",
				StartYear:   "2018",
				EndYear:     "2022",
				Description: "Worked on various projects and collaborated with cross-functional teams to deliver high-quality software. Developed and maintained scalable web applications using JavaScript, React and Node.js.",
			},
			{
				CompanyName: "XYZ Tech",
				JobTitle:    "Senior Software Developer",
				City:        "City2",
				StartYear:   "2022",
				EndYear:     "2023",
				Description: "Led a team of developers in the design and implementation of new products. Contributed to architectural decisions and mentored junior team members.",
			},
		},
		Education: []EducationEntry{
			{
				SchoolName:   "University XYZ",
				Degree:       "Bachelor of Science",
				FieldOfStudy: "Computer Science",
				City:         "City",
				StartYear:    "2014",
				EndYear:      "2018",
				Description:  "Studied algorithms, data structures and software development methodologies. Completed a capstone project focused on a real-world application.",
			},
			{
				SchoolName:   "Tech Master Institute",
				Degree:       "Master of Computer Science",
				FieldOfStudy: "Advanced Software Engineering",
				City:         "City4",
				StartYear:    "2018",
				EndYear:      "2020",
				Description:  "Advanced studies in software engineering with research on optimizing development processes.",
			},
		},
		Skills: []SkillEntry{
			{SkillTitle: "JavaScript"},
			{SkillTitle: "React"},
			{SkillTitle: "Node.js"},
			{SkillTitle: "Python"},
			{SkillTitle: "Java"},
			{SkillTitle: "SQL"},
			{SkillTitle: "Git"},
			{SkillTitle: "Docker"},
		},
	}
}
