package mongo

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/starford/edupath/internal/models"
)

// Filter turns an equality query into a flat filter of dotted paths.
//
// Go maps have no key order, and the server compares embedded documents
// field by field in order, so a nested value is never sent as-is. Each
// leaf becomes its own clause (array elements by index) and every array
// also pins its length with $size.
func Filter(query models.Document) bson.D {
	var out bson.D
	for k, v := range query {
		flatten(&out, k, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func flatten(out *bson.D, path string, v any) {
	switch t := v.(type) {
	case models.Document:
		flattenMap(out, path, t)
	case map[string]any:
		flattenMap(out, path, t)
	case []any:
		*out = append(*out, bson.E{Key: path, Value: bson.D{{Key: "$size", Value: len(t)}}})
		for i, el := range t {
			flatten(out, path+"."+strconv.Itoa(i), el)
		}
	default:
		*out = append(*out, bson.E{Key: path, Value: v})
	}
}

func flattenMap(out *bson.D, path string, m map[string]any) {
	if len(m) == 0 {
		*out = append(*out, bson.E{Key: path, Value: bson.D{}})
		return
	}
	for k, sub := range m {
		flatten(out, path+"."+k, sub)
	}
}

// ErrFieldName rejects documents whose field names cannot be addressed by
// a query path: a name containing a dot or starting with a dollar sign.
// Such a document could be stored but never found again by its content,
// so every import would insert it anew.
var ErrFieldName = errors.New("field name not addressable")

func checkFieldNames(v any) error {
	switch t := v.(type) {
	case models.Document:
		return checkMap(t)
	case map[string]any:
		return checkMap(t)
	case []any:
		for _, el := range t {
			if err := checkFieldNames(el); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkMap(m map[string]any) error {
	for k, v := range m {
		if strings.Contains(k, ".") || strings.HasPrefix(k, "$") {
			return fmt.Errorf("%w: %q", ErrFieldName, k)
		}
		if err := checkFieldNames(v); err != nil {
			return err
		}
	}
	return nil
}

// Normalize converts a decoded BSON document into plain Go maps and
// slices with ObjectIDs in hex form.
func Normalize(m bson.M) models.Document {
	return models.Document(normalizeMap(m))
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch t := v.(type) {
	case primitive.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case primitive.A:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalize(el)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = normalize(el)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}
