// Package analysis turns a multimodal model reply into a bounded scene analysis.
//
// The model is asked for JSON but is not trusted to return it. Every reply
// goes through the same pipeline:
//
//	text ──Extract──► Candidate ──Sanitize──► Result
//	  └───Fallback──────┘ (when Extract fails)
//
// A Result always satisfies its bounds: a non-empty description, between one
// and MaxObjects object labels, and a confidence in [0, 100].
package analysis

// Result bounds and placeholders.
const (
	// MaxObjects caps the number of object labels in a Result.
	MaxObjects = 20

	// DefaultConfidence replaces a missing or falsy confidence.
	DefaultConfidence = 70

	// MaxFallbackDescription is the number of characters of raw reply kept
	// as the description when no JSON could be extracted.
	MaxFallbackDescription = 500

	// NoDescription replaces an empty scene description.
	NoDescription = "Unable to analyze scene"

	// NoObjects is the single label used when the model listed none.
	NoObjects = "No objects detected"
)

// FallbackObjects is the label list emitted when the reply held no usable JSON.
func FallbackObjects() []string {
	return []string{"Analysis", "Available", "In", "Text", "Format"}
}

// Result is the analysis returned to clients.
type Result struct {
	SceneDescription string   `json:"sceneDescription"`
	Objects          []string `json:"objects"`
	Confidence       int      `json:"confidence"`
}

// Candidate is the loosely typed analysis decoded from a model reply.
// Fields hold raw JSON values (nil, bool, float64, string, []any or
// map[string]any) so that wrongly typed fields can be repaired by Sanitize.
type Candidate struct {
	SceneDescription any
	Objects          any
	Confidence       any
}
