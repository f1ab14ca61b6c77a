package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrNoJSON is returned by Extract when the reply contains no brace-delimited span.
var ErrNoJSON = errors.New("analysis: no JSON object in reply")

// Extract parses the span from the first '{' to the last '}' of text.
//
// This is a heuristic rather than a parser: prose containing unrelated
// braces around the object makes the span invalid JSON, and the caller
// falls back to Fallback.
func Extract(text string) (Candidate, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return Candidate{}, ErrNoJSON
	}

	// Keys are matched exactly; encoding/json struct decoding would fold case.
	var fields map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
		return Candidate{}, fmt.Errorf("analysis: parse reply JSON: %w", err)
	}

	return Candidate{
		SceneDescription: fields["sceneDescription"],
		Objects:          fields["objects"],
		Confidence:       fields["confidence"],
	}, nil
}

// Fallback builds a candidate from a reply that held no usable JSON.
func Fallback(text string) Candidate {
	objects := make([]any, 0, 5)
	for _, o := range FallbackObjects() {
		objects = append(objects, o)
	}
	return Candidate{
		SceneDescription: truncate(text, MaxFallbackDescription),
		Objects:          objects,
		Confidence:       float64(DefaultConfidence),
	}
}

// Parse runs Extract and, when it fails, Fallback. The returned flag
// reports whether the fallback was used.
func Parse(text string) (c Candidate, fallback bool) {
	c, err := Extract(text)
	if err != nil {
		return Fallback(text), true
	}
	return c, false
}

// truncate returns the first n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
