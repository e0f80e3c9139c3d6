package pdfclean

import "math"

// Point is a position in page coordinates, with Y increasing downward from
// the top of the page.
type Point struct {
	X float64
	Y float64
}

// RGBA represents a color.
type RGBA struct {
	R, G, B, A uint
}

// Black is the fallback fill color when pdfium cannot report one.
var Black = RGBA{R: 0, G: 0, B: 0, A: 255}

// Fragment is a run of text sharing one font size, style and color.
type Fragment struct {
	Text     string
	Size     float64 // Font size in points
	Origin   Point   // Baseline origin of the first glyph
	Bold     bool
	Italic   bool
	Color    RGBA
	FontName string
}

// RoundedSize returns the font size rounded to the nearest whole point,
// ties to even.
func (f Fragment) RoundedSize() float64 {
	return math.RoundToEven(f.Size)
}

// Variant returns the font variant matching the fragment's style flags.
func (f Fragment) Variant() FontVariant {
	return variantFor(f.Bold, f.Italic)
}

// TextLine is a visually grouped line of fragments.
type TextLine struct {
	Fragments []Fragment
}

// TextBlock is a group of consecutive lines.
type TextBlock struct {
	Lines []TextLine
}

// SegmentKind is the drawing operation that produced a path point.
type SegmentKind int

const (
	SegmentMoveTo SegmentKind = iota
	SegmentLineTo
	SegmentBezierTo
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentMoveTo:
		return "move"
	case SegmentLineTo:
		return "line"
	case SegmentBezierTo:
		return "bezier"
	default:
		return "unknown"
	}
}

// PathPoint is a point of a drawn path together with its operation.
type PathPoint struct {
	Point
	Kind SegmentKind
}

// LineSegment is a drawn subpath. Only two-point segments can be horizontal
// rules.
type LineSegment struct {
	Points []PathPoint
}

// IsHorizontal reports whether the segment has exactly two points whose
// vertical positions differ by less than epsilon.
func (s LineSegment) IsHorizontal(epsilon float64) bool {
	if len(s.Points) != 2 {
		return false
	}
	return math.Abs(s.Points[0].Y-s.Points[1].Y) < epsilon
}

// Page represents all extracted content from a PDF page.
type Page struct {
	Number   int
	Width    float64
	Height   float64
	Blocks   []TextBlock
	Segments []LineSegment
}

// FragmentCount returns the number of fragments on the page.
func (p Page) FragmentCount() int {
	var n int
	for _, block := range p.Blocks {
		for _, line := range block.Lines {
			n += len(line.Fragments)
		}
	}
	return n
}

// Document represents the complete extracted document structure.
type Document struct {
	Pages []Page
}
