// Package render draws the capture client's view as terminal text.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/teslashibe/framelens/pkg/analysis"
	"github.com/teslashibe/framelens/pkg/capture"
)

// State is the client's view state.
type State int

const (
	Idle State = iota
	Analyzing
	Resolved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Analyzing:
		return "analyzing"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultBarWidth is the confidence bar width in cells.
const DefaultBarWidth = 30

// View is everything needed to draw one screen.
type View struct {
	State State

	// Result and Err are set when State is Resolved. Err wins over Result.
	Result *analysis.Result
	Err    error

	// Preview is the frame that was analysed.
	Preview capture.Frame
}

// Render writes the view to w. Output depends only on the view.
func Render(w io.Writer, v View) error {
	var b strings.Builder

	switch {
	case v.State == Analyzing:
		b.WriteString("⏳ Analyzing video snapshot...\n")
		b.WriteString("   This may take a few moments\n")

	case v.State == Resolved && v.Err != nil:
		fmt.Fprintf(&b, "❌ %s\n", v.Err)

	case v.State == Resolved && v.Result != nil:
		writeResult(&b, v.Preview, *v.Result)

	default:
		b.WriteString("No analysis yet\n")
		b.WriteString("Press Enter to capture & analyze the current frame\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeResult(b *strings.Builder, preview capture.Frame, r analysis.Result) {
	if preview.Width > 0 {
		fmt.Fprintf(b, "📷 Preview: %dx%d %s, %s\n\n",
			preview.Width, preview.Height, preview.MIMEType, formatBytes(len(preview.Data)))
	}

	b.WriteString("Scene Description\n")
	fmt.Fprintf(b, "  %s\n\n", r.SceneDescription)

	b.WriteString("Detected Objects\n")
	for i, o := range r.Objects {
		fmt.Fprintf(b, "  %2d. %s\n", i+1, o)
	}
	b.WriteString("\n")

	b.WriteString("Confidence Score\n")
	fmt.Fprintf(b, "  %s %d%%\n", ConfidenceBar(r.Confidence, DefaultBarWidth), r.Confidence)
}

// ConfidenceBar draws c (0-100) as a bar of width cells, filled linearly.
// Values outside the range are clamped.
func ConfidenceBar(c, width int) string {
	if width <= 0 {
		return ""
	}
	c = max(0, min(100, c))
	filled := (c*width + 50) / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
