package docstore

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/starford/edupath/internal/models"
)

// Matches reports whether doc satisfies every clause of query, using the
// same rules the hosted database applies to an equality filter: a dotted
// key walks nested documents, a step over an array tries each element (or
// the element at a numeric index), and a scalar clause matches an array
// containing it. A field whose own name contains a dot also matches its
// literal key, so a document can always be found by its own content.
// Backends that cannot push filters down use this.
func Matches(doc, query models.Document) bool {
	for path, want := range query {
		if !pathMatches(map[string]any(doc), strings.Split(path, "."), want) {
			return false
		}
	}
	return true
}

func pathMatches(cur any, segs []string, want any) bool {
	if len(segs) == 0 {
		return leafMatches(cur, want)
	}
	if m, ok := asMap(cur); ok {
		found := false
		for i := len(segs); i >= 1; i-- {
			v, ok := m[strings.Join(segs[:i], ".")]
			if !ok {
				continue
			}
			found = true
			if pathMatches(v, segs[i:], want) {
				return true
			}
		}
		return !found && want == nil
	}
	arr, ok := cur.([]any)
	if !ok {
		return false
	}
	if idx, err := strconv.Atoi(segs[0]); err == nil && idx >= 0 && idx < len(arr) {
		if pathMatches(arr[idx], segs[1:], want) {
			return true
		}
	}
	for _, el := range arr {
		if pathMatches(el, segs, want) {
			return true
		}
	}
	return false
}

func leafMatches(actual, want any) bool {
	if arr, ok := actual.([]any); ok {
		if _, wantArr := want.([]any); !wantArr {
			for _, el := range arr {
				if valuesEqual(el, want) {
					return true
				}
			}
			return false
		}
	}
	return valuesEqual(actual, want)
}

// valuesEqual is structural equality with all numeric types compared by value.
// String comparison is case-sensitive: course titles differing only in case
// are different courses.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := models.ToFloat64(a); ok {
		bf, ok := models.ToFloat64(b)
		return ok && af == bf
	}
	if am, ok := asMap(a); ok {
		bm, ok := asMap(b)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, found := bm[k]
			if !found || !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	}
	if aa, ok := a.([]any); ok {
		ba, ok := b.([]any)
		if !ok || len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !valuesEqual(aa[i], ba[i]) {
				return false
			}
		}
		return true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case models.Document:
		return m, true
	case models.Year:
		return m, true
	case models.Semester:
		return m, true
	case models.Course:
		return m, true
	}
	return nil, false
}
