package catalog

import "testing"

func TestProgramNaming(t *testing.T) {
	p := Program{Level: "bachelor", CourseType: "business_analytics"}
	if got := p.Collection(); got != "bachelor_business_analytics_courses" {
		t.Errorf("Collection = %q", got)
	}
	if got := p.Route(); got != "/bachelor-business-analytics-courses" {
		t.Errorf("Route = %q", got)
	}
}

func TestCollections(t *testing.T) {
	got := Collections()
	if len(got) != len(Programs)+1 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0] != DegreesCollection {
		t.Errorf("first = %q, want %q", got[0], DegreesCollection)
	}
}

func TestNaturalKeyField(t *testing.T) {
	if NaturalKeyField(DegreesCollection) != "course" {
		t.Error("degrees keyed by course")
	}
	if NaturalKeyField("bachelor_accountancy_courses") != "" {
		t.Error("course lists keyed by whole document")
	}
}
