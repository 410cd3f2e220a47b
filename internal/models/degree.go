package models

import "encoding/json"

// DegreePlan is the typed form of a colleges_degrees document. The store
// never decodes into it; it exists for fixtures and for describing the
// document shape to clients.
type DegreePlan struct {
	Course  string     `json:"course"`
	Degree  string     `json:"degree,omitempty"`
	College string     `json:"college,omitempty"`
	Years   []YearPlan `json:"years"`
}

// YearPlan is one year of a DegreePlan.
type YearPlan struct {
	Semesters []SemesterPlan `json:"semesters"`
}

// SemesterPlan is one semester of a YearPlan.
type SemesterPlan struct {
	Courses []CourseEntry `json:"courses"`
}

// CourseEntry is a single course line.
type CourseEntry struct {
	Title           string `json:"title"`
	CourseNumber    string `json:"courseNumber"`
	Hours           int    `json:"hours"`
	Important       string `json:"important,omitempty"`
	MinGrade        string `json:"minGrade,omitempty"`
	GEC             string `json:"gec,omitempty"`
	Prerequisite    string `json:"prerequisite,omitempty"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
	Department      string `json:"department,omitempty"`
	Program         string `json:"program,omitempty"`
}

// Document converts the plan into the generic shape the store works with.
func (p DegreePlan) Document() (Document, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
