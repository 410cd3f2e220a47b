package models

import "testing"

func samplePlan() DegreePlan {
	return DegreePlan{
		Course: "Business Analytics",
		Years: []YearPlan{{
			Semesters: []SemesterPlan{{
				Courses: []CourseEntry{
					{Title: "Intro to Analytics", CourseNumber: " BANA 1300 ", Hours: 3},
					{Title: "Statistics", CourseNumber: "QUMT 2341", Hours: 4},
				},
			}},
		}},
	}
}

func TestDegreeViews(t *testing.T) {
	doc, err := samplePlan().Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if KindOf(doc) != KindDegree {
		t.Fatalf("kind = %v, want degree", KindOf(doc))
	}
	years := doc.Years()
	if len(years) != 1 {
		t.Fatalf("years = %d", len(years))
	}
	courses := years[0].Semesters()[0].Courses()
	if len(courses) != 2 {
		t.Fatalf("courses = %d", len(courses))
	}
	if courses[0].CourseNumber() != "BANA 1300" {
		t.Errorf("course number = %q", courses[0].CourseNumber())
	}
	if courses[1].Hours() != 4 {
		t.Errorf("hours = %v", courses[1].Hours())
	}
}

func TestCourseSetMutatesDocument(t *testing.T) {
	doc, err := samplePlan().Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	doc.Years()[0].Semesters()[0].Courses()[0].Set("minGrade", "C")

	got := doc.Years()[0].Semesters()[0].Courses()[0]["minGrade"]
	if got != "C" {
		t.Errorf("minGrade = %v, want C", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc, err := samplePlan().Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	cp := doc.Clone()
	cp.Years()[0].Semesters()[0].Courses()[0].Set("title", "changed")

	if doc.Years()[0].Semesters()[0].Courses()[0].Title() != "Intro to Analytics" {
		t.Error("clone shares nested storage with the original")
	}
}

func TestKindOfGeneric(t *testing.T) {
	if KindOf(Document{"courseTitle": "Accounting I"}) != KindGeneric {
		t.Error("flat record should be generic")
	}
}

func TestID(t *testing.T) {
	cases := []struct {
		doc  Document
		want string
	}{
		{Document{}, ""},
		{Document{IDField: "abc"}, "abc"},
		{Document{IDField: 42}, "42"},
	}
	for _, c := range cases {
		if got := c.doc.ID(); got != c.want {
			t.Errorf("ID(%v) = %q, want %q", c.doc, got, c.want)
		}
	}
}
