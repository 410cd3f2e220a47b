// Package models defines the document shapes stored in the catalog.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IDField is the identity key every stored document carries.
const IDField = "_id"

// Document is a schemaless stored document. Degree documents are read
// through the typed views below; everything else stays generic.
type Document map[string]any

// Kind tags which variant a Document is.
type Kind int

const (
	KindGeneric Kind = iota
	KindDegree
)

func (k Kind) String() string {
	if k == KindDegree {
		return "degree"
	}
	return "generic"
}

// KindOf reports KindDegree for documents carrying a years array.
func KindOf(d Document) Kind {
	if _, ok := d["years"].([]any); ok {
		return KindDegree
	}
	return KindGeneric
}

// ID returns the document identity as a string, or "" when absent.
func (d Document) ID() string {
	v, ok := d[IDField]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// StringField returns the named field when it is a string.
func (d Document) StringField(field string) string {
	s, _ := d[field].(string)
	return s
}

// Clone deep-copies the document so callers can mutate the copy freely.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

// Without returns a shallow copy of d minus the given keys.
func (d Document) Without(keys ...string) Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Years returns the degree plan years. Mutating a returned view mutates d.
func (d Document) Years() []Year {
	return views(d["years"], func(m map[string]any) Year { return Year(m) })
}

// Year is one year of a degree plan.
type Year map[string]any

// Semesters returns the semesters of the year.
func (y Year) Semesters() []Semester {
	return views(y["semesters"], func(m map[string]any) Semester { return Semester(m) })
}

// Semester is one semester of a degree plan year.
type Semester map[string]any

// Courses returns the course entries of the semester.
func (s Semester) Courses() []Course {
	return views(s["courses"], func(m map[string]any) Course { return Course(m) })
}

// Course is a single course entry inside a semester.
type Course map[string]any

// Title returns the course title.
func (c Course) Title() string {
	s, _ := c["title"].(string)
	return s
}

// CourseNumber returns the course number with surrounding spaces removed.
func (c Course) CourseNumber() string {
	s, _ := c["courseNumber"].(string)
	return strings.TrimSpace(s)
}

// Hours returns the credit hours, 0 when missing or not numeric.
// Fractional hours are kept.
func (c Course) Hours() float64 {
	f, _ := ToFloat64(c["hours"])
	return f
}

// Set overwrites one field of the course.
func (c Course) Set(field string, value any) {
	c[field] = value
}

func views[T any](raw any, wrap func(map[string]any) T) []T {
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]T, 0, len(arr))
	for _, el := range arr {
		switch m := el.(type) {
		case map[string]any:
			out = append(out, wrap(m))
		case Document:
			out = append(out, wrap(m))
		}
	}
	return out
}

// ToFloat64 converts the numeric types produced by JSON, BSON and Go literals.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Document:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = cloneValue(el)
		}
		return out
	default:
		return v
	}
}
