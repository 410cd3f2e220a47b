package importer

import (
	"math"

	"github.com/starford/edupath/internal/catalog"
	"github.com/starford/edupath/internal/models"
)

// Derived field names written onto degree documents.
const (
	FieldTotalSemesterHours         = "totalSemesterHours"
	FieldTotalDegreeHours           = "totalDegreeHours"
	FieldAdvancedMinimumCreditHours = "advancedMinimumCreditHours"
)

// Derive stamps credit-hour totals and the notice banners onto a degree
// document in place. Every semester gets the sum of its course hours, the
// document gets the sum over all semesters plus the hours of advanced
// (upper-division) courses.
func Derive(doc models.Document) {
	var total, advanced float64
	for _, year := range doc.Years() {
		for _, sem := range year.Semesters() {
			var semTotal float64
			for _, c := range sem.Courses() {
				h := c.Hours()
				semTotal += h
				if IsAdvanced(c.CourseNumber()) {
					advanced += h
				}
			}
			sem[FieldTotalSemesterHours] = hoursValue(semTotal)
			total += semTotal
		}
	}
	doc[FieldTotalDegreeHours] = hoursValue(total)
	doc[FieldAdvancedMinimumCreditHours] = hoursValue(advanced)
	for field, text := range catalog.Notices() {
		doc[field] = text
	}
}

// hoursValue stores whole totals as int and keeps fractional ones.
func hoursValue(h float64) any {
	if h == math.Trunc(h) && math.Abs(h) < 1<<53 {
		return int(h)
	}
	return h
}

// IsAdvanced reports whether a trimmed course number such as "ACCT 3301"
// names a 3000- or 4000-level course: its sixth character is 3 or 4.
func IsAdvanced(courseNumber string) bool {
	r := []rune(courseNumber)
	return len(r) >= 6 && (r[5] == '3' || r[5] == '4')
}
