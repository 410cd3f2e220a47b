package mcpserver

// DegreeFormatContract describes the degree plan document shape that LLM
// consumers should follow when adding or editing catalog data.
const DegreeFormatContract = `# EduPath Degree Plan Format

Degree plans live in the ` + "`" + `colleges_degrees` + "`" + ` collection, one document per degree.
Program course lists live in ` + "`" + `{level}_{course_type}_courses` + "`" + ` collections
(for example ` + "`" + `bachelor_accountancy_courses` + "`" + `) as flat records.

## Degree document

` + "```" + `json
{
  "course": "Business Analytics",        // REQUIRED, unique within the collection
  "degree": "BBA",
  "college": "Robert C. Vackar College of Business & Entrepreneurship",
  "years": [
    {
      "semesters": [
        {
          "courses": [
            {
              "title": "Intro to Business",   // used to locate the course for updates
              "courseNumber": "MANA 1301",    // SUBJ NNNN; 3xxx/4xxx count as advanced
              "hours": 3,
              "important": "",
              "minGrade": "C",
              "gec": "",
              "prerequisite": "",
              "additionalNotes": "",
              "department": "Management",
              "program": "BBA"
            }
          ]
        }
      ]
    }
  ]
}
` + "```" + `

## Computed at import

- ` + "`" + `totalSemesterHours` + "`" + ` on every semester: sum of its course hours.
- ` + "`" + `totalDegreeHours` + "`" + `: sum of all semester totals.
- ` + "`" + `advancedMinimumCreditHours` + "`" + `: hours of courses whose trimmed course number
  has a 3 or 4 as its sixth character.
- Notice banners (` + "`" + `approved` + "`" + `, ` + "`" + `revised` + "`" + `, ` + "`" + `aboveYearOne` + "`" + ` ...).

Documents added with ` + "`" + `add_document` + "`" + ` are stored as given; run an import to get
the computed fields.

## Rules

1. Course titles should be unique within a degree. When a title repeats, updates
   touch the first occurrence only (years, then semesters, then courses, in order).
2. ` + "`" + `hours` + "`" + ` is a number, not a string.
3. Never set ` + "`" + `_id` + "`" + `; the store assigns it.
`
