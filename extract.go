package pdfclean

import (
	"math"
	"strings"
	"unicode"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// PDF font descriptor flags.
const (
	fontFlagItalic    = 0x40
	fontFlagForceBold = 0x40000
)

// lineJumpRatio is the baseline shift, relative to font size, that starts a
// new line. Superscript markers stay on their line.
const lineJumpRatio = 0.6

// styledChar is a single character with the metadata needed to build fragments.
type styledChar struct {
	Text     rune
	Origin   Point
	Size     float64
	Weight   int
	FontName string
	Flags    int
	Color    RGBA
}

func (c styledChar) isBold() bool {
	if c.Weight >= 700 || c.Flags&fontFlagForceBold != 0 {
		return true
	}
	name := strings.ToLower(c.FontName)
	return strings.Contains(name, "bold") || strings.Contains(name, "black") || strings.Contains(name, "heavy")
}

func (c styledChar) isItalic() bool {
	if c.Flags&fontFlagItalic != 0 {
		return true
	}
	name := strings.ToLower(c.FontName)
	return strings.Contains(name, "italic") || strings.Contains(name, "oblique")
}

// styleKey groups chars that can share a fragment.
type styleKey struct {
	size     float64
	bold     bool
	italic   bool
	color    RGBA
	fontName string
}

func (c styledChar) key() styleKey {
	return styleKey{
		size:     math.Round(c.Size*10) / 10,
		bold:     c.isBold(),
		italic:   c.isItalic(),
		color:    c.Color,
		fontName: c.FontName,
	}
}

// ExtractPage builds the page model of a loaded pdfium page.
func ExtractPage(instance pdfium.Pdfium, page references.FPDF_PAGE, pageNumber int, config Config) (*Page, error) {
	pageWidth, err := instance.FPDF_GetPageWidthF(&requests.FPDF_GetPageWidthF{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page width")
	}

	pageHeight, err := instance.FPDF_GetPageHeightF(&requests.FPDF_GetPageHeightF{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page height")
	}

	width := float64(pageWidth.PageWidth)
	height := float64(pageHeight.PageHeight)

	textPage, err := instance.FPDFText_LoadPage(&requests.FPDFText_LoadPage{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load text page")
	}
	defer instance.FPDFText_ClosePage(&requests.FPDFText_ClosePage{
		TextPage: textPage.TextPage,
	})

	charCount, err := instance.FPDFText_CountChars(&requests.FPDFText_CountChars{
		TextPage: textPage.TextPage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count characters")
	}

	chars := extractStyledChars(instance, textPage.TextPage, charCount.Count, height)

	segments, err := extractSegmentsFromPage(instance, page, height, config)
	if err != nil {
		// Non-fatal: a page without readable paths simply has no separator
		segments = nil
	}

	return &Page{
		Number:   pageNumber,
		Width:    width,
		Height:   height,
		Blocks:   buildBlocks(chars, config),
		Segments: segments,
	}, nil
}

// extractStyledChars reads every character of a text page. Attributes pdfium
// cannot report fall back to defaults, so they never match a threshold by
// accident.
func extractStyledChars(instance pdfium.Pdfium, textPage references.FPDF_TEXTPAGE, count int, pageHeight float64) []styledChar {
	chars := make([]styledChar, 0, count)

	for i := range count {
		unicodeRes, err := instance.FPDFText_GetUnicode(&requests.FPDFText_GetUnicode{
			TextPage: textPage,
			Index:    i,
		})
		if err != nil || unicodeRes.Unicode == 0 {
			continue
		}

		origin, err := instance.FPDFText_GetCharOrigin(&requests.FPDFText_GetCharOrigin{
			TextPage: textPage,
			Index:    i,
		})
		if err != nil {
			continue
		}

		fontSize, err := instance.FPDFText_GetFontSize(&requests.FPDFText_GetFontSize{
			TextPage: textPage,
			Index:    i,
		})
		fontSizeVal := 0.0
		if err == nil {
			fontSizeVal = fontSize.FontSize * charScale(instance, textPage, i)
		}

		fontWeight, err := instance.FPDFText_GetFontWeight(&requests.FPDFText_GetFontWeight{
			TextPage: textPage,
			Index:    i,
		})
		fontWeightVal := 400 // Default normal weight
		if err == nil {
			fontWeightVal = fontWeight.FontWeight
		}

		fontInfo, err := instance.FPDFText_GetFontInfo(&requests.FPDFText_GetFontInfo{
			TextPage: textPage,
			Index:    i,
		})
		fontNameVal := ""
		fontFlagsVal := 0
		if err == nil {
			fontNameVal = fontInfo.FontName
			fontFlagsVal = fontInfo.Flags
		}

		fillColor, err := instance.FPDFText_GetFillColor(&requests.FPDFText_GetFillColor{
			TextPage: textPage,
			Index:    i,
		})
		fillColorVal := Black
		if err == nil {
			fillColorVal = RGBA{
				R: fillColor.R,
				G: fillColor.G,
				B: fillColor.B,
				A: fillColor.A,
			}
		}

		chars = append(chars, styledChar{
			Text: rune(unicodeRes.Unicode),
			// Convert PDF coordinates (origin bottom-left) to top-down
			Origin:   Point{X: origin.X, Y: pageHeight - origin.Y},
			Size:     fontSizeVal,
			Weight:   fontWeightVal,
			FontName: fontNameVal,
			Flags:    fontFlagsVal,
			Color:    fillColorVal,
		})
	}

	return chars
}

// charScale returns the vertical scale of a char's text matrix. pdfium
// reports the Tf operand as the font size, so text set with "/F 1 Tf" and
// scaled through Tm would otherwise read as 1pt.
func charScale(instance pdfium.Pdfium, textPage references.FPDF_TEXTPAGE, index int) float64 {
	m, err := instance.FPDFText_GetMatrix(&requests.FPDFText_GetMatrix{
		TextPage: textPage,
		Index:    index,
	})
	if err != nil {
		return 1
	}

	scale := math.Hypot(float64(m.Matrix.C), float64(m.Matrix.D))
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 1
	}
	return scale
}

func isLineBreak(r rune) bool {
	return r == '\r' || r == '\n'
}

// fragmentBuilder accumulates chars of one fragment.
type fragmentBuilder struct {
	text   strings.Builder
	first  styledChar
	key    styleKey
	active bool
}

func (b *fragmentBuilder) start(c styledChar) {
	b.text.Reset()
	b.text.WriteRune(c.Text)
	b.first = c
	b.key = c.key()
	b.active = true
}

func (b *fragmentBuilder) finish() (Fragment, bool) {
	if !b.active {
		return Fragment{}, false
	}
	b.active = false

	text := normalizeText(strings.TrimRightFunc(b.text.String(), unicode.IsSpace))
	if text == "" {
		return Fragment{}, false
	}

	return Fragment{
		Text:     text,
		Size:     b.first.Size,
		Origin:   b.first.Origin,
		Bold:     b.key.bold,
		Italic:   b.key.italic,
		Color:    b.first.Color,
		FontName: b.first.FontName,
	}, true
}

// groupCharsIntoLines splits chars into lines of uniform-style fragments.
func groupCharsIntoLines(chars []styledChar) []TextLine {
	var (
		lines    []TextLine
		current  TextLine
		frag     fragmentBuilder
		baseline float64
		lineSize float64
		inLine   bool
	)

	flushFragment := func() {
		if f, ok := frag.finish(); ok {
			current.Fragments = append(current.Fragments, f)
		}
	}
	flushLine := func() {
		flushFragment()
		if len(current.Fragments) > 0 {
			lines = append(lines, current)
		}
		current = TextLine{}
		inLine = false
	}

	for _, c := range chars {
		if isLineBreak(c.Text) {
			flushLine()
			continue
		}

		if unicode.IsSpace(c.Text) {
			// Whitespace joins the open fragment but never starts one
			if frag.active {
				frag.text.WriteRune(c.Text)
			}
			continue
		}

		if inLine {
			limit := lineJumpRatio * math.Max(lineSize, c.Size)
			if math.Abs(c.Origin.Y-baseline) > limit {
				flushLine()
			}
		}

		if !inLine {
			baseline = c.Origin.Y
			lineSize = c.Size
			inLine = true
		}

		if frag.active && frag.key != c.key() {
			flushFragment()
		}
		if !frag.active {
			frag.start(c)
			continue
		}
		frag.text.WriteRune(c.Text)
	}
	flushLine()

	return lines
}

// buildBlocks groups lines into blocks, starting a new block where the
// baseline gap to the previous line exceeds the configured ratio.
func buildBlocks(chars []styledChar, config Config) []TextBlock {
	lines := groupCharsIntoLines(chars)
	if len(lines) == 0 {
		return nil
	}

	var blocks []TextBlock
	current := TextBlock{Lines: []TextLine{lines[0]}}

	for i := 1; i < len(lines); i++ {
		prev := lines[i-1].Fragments[0]
		curr := lines[i].Fragments[0]

		gap := curr.Origin.Y - prev.Origin.Y
		size := math.Max(prev.Size, curr.Size)
		if size <= 0 {
			size = 1
		}

		// A line moving up the page means a new column or text box
		if gap < 0 || gap > config.BlockGapRatio*size {
			blocks = append(blocks, current)
			current = TextBlock{}
		}
		current.Lines = append(current.Lines, lines[i])
	}
	blocks = append(blocks, current)

	return blocks
}

// ligatureMap maps ligature unicode codepoints to their expanded forms
var ligatureMap = map[rune]string{
	0xFB00: "ff",
	0xFB01: "fi",
	0xFB02: "fl",
	0xFB03: "ffi",
	0xFB04: "ffl",
	0xFB05: "ft",
	0xFB06: "st",
}

// normalizeText expands ligatures and composes combining marks.
func normalizeText(text string) string {
	if strings.ContainsFunc(text, func(r rune) bool {
		_, ok := ligatureMap[r]
		return ok
	}) {
		var sb strings.Builder
		for _, r := range text {
			if expansion, ok := ligatureMap[r]; ok {
				sb.WriteString(expansion)
			} else {
				sb.WriteRune(r)
			}
		}
		text = sb.String()
	}
	return norm.NFC.String(text)
}
