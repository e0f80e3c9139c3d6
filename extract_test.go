package pdfclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// charsOf lays out text as consecutive chars on one baseline.
func charsOf(text string, x, y, size float64, mod func(*styledChar)) []styledChar {
	var out []styledChar
	for _, r := range text {
		c := styledChar{
			Text:     r,
			Origin:   Point{X: x, Y: y},
			Size:     size,
			Weight:   400,
			FontName: "Times-Roman",
			Color:    Black,
		}
		if mod != nil {
			mod(&c)
		}
		out = append(out, c)
		x += size * 0.5
	}
	return out
}

func crlf(y float64) []styledChar {
	return []styledChar{{Text: '\r', Origin: Point{Y: y}}, {Text: '\n', Origin: Point{Y: y}}}
}

func concat(parts ...[]styledChar) []styledChar {
	var out []styledChar
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func fragmentTexts(lines []TextLine) [][]string {
	var out [][]string
	for _, line := range lines {
		var texts []string
		for _, f := range line.Fragments {
			texts = append(texts, f.Text)
		}
		out = append(out, texts)
	}
	return out
}

func TestGroupCharsIntoLines_StyleSplitsFragments(t *testing.T) {
	bold := func(c *styledChar) { c.Weight = 700 }

	chars := concat(
		charsOf("Hello ", 72, 100, 12, nil),
		charsOf("world", 108, 100, 12, bold),
		charsOf(" again", 138, 100, 12, nil),
	)

	lines := groupCharsIntoLines(chars)
	require.Len(t, lines, 1)
	assert.Equal(t, [][]string{{"Hello", "world", "again"}}, fragmentTexts(lines))

	frags := lines[0].Fragments
	assert.False(t, frags[0].Bold)
	assert.True(t, frags[1].Bold)
	assert.Equal(t, Point{X: 108, Y: 100}, frags[1].Origin)
	// Leading whitespace never opens a fragment, so "again" starts at its 'a'
	assert.Equal(t, 138+6.0, frags[2].Origin.X)
}

func TestGroupCharsIntoLines_LineBreaks(t *testing.T) {
	chars := concat(
		charsOf("first line", 72, 100, 12, nil),
		crlf(100),
		charsOf("second line", 72, 114, 12, nil),
		// No explicit break, but the baseline jumps
		charsOf("third", 72, 128, 12, nil),
	)

	lines := groupCharsIntoLines(chars)
	assert.Equal(t, [][]string{{"first line"}, {"second line"}, {"third"}}, fragmentTexts(lines))
}

func TestGroupCharsIntoLines_SuperscriptStaysOnLine(t *testing.T) {
	small := func(c *styledChar) { c.Size = 7 }

	chars := concat(
		charsOf("claim", 72, 300, 12, nil),
		charsOf("3", 102, 296, 7, small),
		charsOf(" holds", 106, 300, 12, nil),
	)

	lines := groupCharsIntoLines(chars)
	assert.Equal(t, [][]string{{"claim", "3", "holds"}}, fragmentTexts(lines))
}

func TestGroupCharsIntoLines_DropsBlankLines(t *testing.T) {
	chars := concat(crlf(0), charsOf("   ", 72, 100, 12, nil), crlf(100))
	assert.Empty(t, groupCharsIntoLines(chars))
}

func TestBuildBlocks_GapSplitsBlocks(t *testing.T) {
	chars := concat(
		charsOf("para one", 72, 100, 12, nil), crlf(100),
		charsOf("still one", 72, 114, 12, nil), crlf(114),
		charsOf("para two", 72, 150, 12, nil), crlf(150),
		charsOf("note", 72, 60, 10, nil),
	)

	blocks := buildBlocks(chars, DefaultConfig())
	require.Len(t, blocks, 3)
	assert.Len(t, blocks[0].Lines, 2)
	assert.Len(t, blocks[1].Lines, 1)
	assert.Equal(t, "note", blocks[2].Lines[0].Fragments[0].Text)
}

func TestBuildBlocks_Empty(t *testing.T) {
	assert.Nil(t, buildBlocks(nil, DefaultConfig()))
}

func TestStyledChar_Style(t *testing.T) {
	assert.True(t, styledChar{Weight: 700}.isBold())
	assert.True(t, styledChar{Flags: fontFlagForceBold}.isBold())
	assert.True(t, styledChar{FontName: "TimesNewRomanPS-BoldMT"}.isBold())
	assert.False(t, styledChar{Weight: 400, FontName: "Times-Roman"}.isBold())

	assert.True(t, styledChar{Flags: fontFlagItalic}.isItalic())
	assert.True(t, styledChar{FontName: "Helvetica-Oblique"}.isItalic())
	assert.False(t, styledChar{FontName: "Times-Roman"}.isItalic())
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "office", normalizeText("o\ufb03ce"))
	assert.Equal(t, "first", normalizeText("\ufb01rst"))
	// Combining acute accent composes into a single rune
	assert.Equal(t, "caf\u00e9", normalizeText("cafe\u0301"))
	assert.Equal(t, "plain", normalizeText("plain"))
}

func rawPoints(pts ...PathPoint) []rawPathPoint {
	out := make([]rawPathPoint, 0, len(pts))
	for _, p := range pts {
		out = append(out, rawPathPoint{PathPoint: p})
	}
	return out
}

func pp(x, y float64, kind SegmentKind) PathPoint {
	return PathPoint{Point: Point{X: x, Y: y}, Kind: kind}
}

func TestPathToSegments_SplitsSubpaths(t *testing.T) {
	points := rawPoints(
		pp(72, 100, SegmentMoveTo), pp(216, 100, SegmentLineTo),
		pp(72, 500, SegmentMoveTo), pp(216, 500, SegmentLineTo),
	)

	segments := pathToSegments(points, DefaultConfig())
	require.Len(t, segments, 2)
	assert.Len(t, segments[0].Points, 2)
	assert.Equal(t, 500.0, segments[1].Points[0].Y)

	y, ok := FindSeparator(segments, 1)
	assert.True(t, ok)
	assert.Equal(t, 500.0, y)
}

func TestPathToSegments_ThinRectangle(t *testing.T) {
	points := rawPoints(
		pp(72, 600, SegmentMoveTo),
		pp(216, 600, SegmentLineTo),
		pp(216, 600.4, SegmentLineTo),
		pp(72, 600.4, SegmentLineTo),
	)
	points[len(points)-1].Close = true

	segments := pathToSegments(points, DefaultConfig())
	require.Len(t, segments, 1)
	require.Len(t, segments[0].Points, 2)
	assert.InDelta(t, 600.2, segments[0].Points[0].Y, 1e-9)
	assert.Equal(t, 72.0, segments[0].Points[0].X)
	assert.Equal(t, 216.0, segments[0].Points[1].X)

	cfg := DefaultConfig()
	cfg.ThinRuleRectangles = false
	segments = pathToSegments(points, cfg)
	require.Len(t, segments, 1)
	assert.Len(t, segments[0].Points, 4)
}

func TestThinRectangleRule_Rejects(t *testing.T) {
	tall := rawPoints(
		pp(72, 100, SegmentMoveTo),
		pp(216, 100, SegmentLineTo),
		pp(216, 140, SegmentLineTo),
		pp(72, 140, SegmentLineTo),
		pp(72, 100, SegmentLineTo),
	)
	_, ok := thinRectangleRule(tall, 1)
	assert.False(t, ok, "tall rectangle is a box, not a rule")

	open := rawPoints(
		pp(72, 100, SegmentMoveTo),
		pp(216, 100, SegmentLineTo),
		pp(216, 100.5, SegmentLineTo),
		pp(72, 100.5, SegmentLineTo),
	)
	_, ok = thinRectangleRule(open, 1)
	assert.False(t, ok, "unclosed path")

	curved := rawPoints(
		pp(72, 100, SegmentMoveTo),
		pp(216, 100, SegmentBezierTo),
		pp(216, 100.5, SegmentLineTo),
		pp(72, 100.5, SegmentLineTo),
		pp(72, 100, SegmentLineTo),
	)
	_, ok = thinRectangleRule(curved, 1)
	assert.False(t, ok, "curves are not rules")
}

func TestAffine_Apply(t *testing.T) {
	x, y := identity.apply(3, 4)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)

	m := affine{a: 2, d: 2, e: 10, f: 20}
	x, y = m.apply(3, 4)
	assert.Equal(t, 16.0, x)
	assert.Equal(t, 28.0, y)
}
