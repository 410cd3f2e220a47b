// Package catalog enumerates the degree programs the service publishes and
// the naming conventions that tie a program to its collection and route.
package catalog

import "strings"

// DegreesCollection holds one document per degree program.
const DegreesCollection = "colleges_degrees"

// Program is one (level, course type) pair, e.g. bachelor / business_analytics.
type Program struct {
	Level      string
	CourseType string
}

// Collection returns the collection holding the program's course list.
func (p Program) Collection() string {
	return p.Level + "_" + p.CourseType + "_courses"
}

// Route returns the path of the program's course list, relative to /api.
func (p Program) Route() string {
	return "/" + p.Level + "-" + strings.ReplaceAll(p.CourseType, "_", "-") + "-courses"
}

// Programs is the static list of published programs.
var Programs = []Program{
	{Level: "bachelor", CourseType: "business_analytics"},
	{Level: "bachelor", CourseType: "accountancy"},
	{Level: "bachelor", CourseType: "social_work"},
	{Level: "bachelor", CourseType: "civil_engineering"},
}

// Collections returns every collection the catalog serves, degrees first.
func Collections() []string {
	out := make([]string, 0, len(Programs)+1)
	out = append(out, DegreesCollection)
	for _, p := range Programs {
		out = append(out, p.Collection())
	}
	return out
}

// NaturalKeyField returns the field identifying a document in collection,
// or "" when the whole document is its own key.
func NaturalKeyField(collection string) string {
	if collection == DegreesCollection {
		return "course"
	}
	return ""
}
