package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Sanitize coerces a candidate into a Result that satisfies every bound.
// A well-formed candidate passes through unchanged apart from the object
// limit and the confidence clamp.
func Sanitize(c Candidate) Result {
	return Result{
		SceneDescription: sanitizeDescription(c.SceneDescription),
		Objects:          sanitizeObjects(c.Objects),
		Confidence:       sanitizeConfidence(c.Confidence),
	}
}

// ClampConfidence limits v to [0, 100] as min(100, max(0, v)) and rounds to
// the nearest integer. NaN yields DefaultConfidence.
func ClampConfidence(v float64) int {
	if math.IsNaN(v) {
		return DefaultConfidence
	}
	return int(math.Round(math.Min(100, math.Max(0, v))))
}

func sanitizeDescription(v any) string {
	if !truthy(v) {
		return NoDescription
	}
	return stringify(v)
}

func sanitizeObjects(v any) []string {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return []string{NoObjects}
	}
	if len(list) > MaxObjects {
		list = list[:MaxObjects]
	}
	objects := make([]string, len(list))
	for i, o := range list {
		objects[i] = stringify(o)
	}
	return objects
}

func sanitizeConfidence(v any) int {
	if !truthy(v) {
		return DefaultConfidence
	}
	switch x := v.(type) {
	case float64:
		return ClampConfidence(x)
	case bool:
		// Only true reaches here.
		return ClampConfidence(1)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return ClampConfidence(0)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return DefaultConfidence
		}
		return ClampConfidence(f)
	default:
		return DefaultConfidence
	}
}

// truthy reports whether a decoded JSON value counts as present.
// null, false, 0, NaN and "" do not; arrays and objects always do.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// stringify renders a decoded JSON value as a label.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
