package pdfclean

import "strings"

// FontVariant is the style of the font used when re-rendering a fragment.
type FontVariant int

const (
	VariantRegular FontVariant = iota
	VariantBold
	VariantItalic
	VariantBoldItalic
)

// variantTable is indexed by [bold][italic].
var variantTable = [2][2]FontVariant{
	{VariantRegular, VariantItalic},
	{VariantBold, VariantBoldItalic},
}

// standardFonts maps each variant to its base-14 Times font.
var standardFonts = map[FontVariant]string{
	VariantRegular:    "Times-Roman",
	VariantBold:       "Times-Bold",
	VariantItalic:     "Times-Italic",
	VariantBoldItalic: "Times-BoldItalic",
}

func variantFor(bold, italic bool) FontVariant {
	return variantTable[b2i(bold)][b2i(italic)]
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (v FontVariant) String() string {
	switch v {
	case VariantRegular:
		return "regular"
	case VariantBold:
		return "bold"
	case VariantItalic:
		return "italic"
	case VariantBoldItalic:
		return "bold-italic"
	default:
		return "unknown"
	}
}

// StandardFont returns the base-14 font name used to render the variant.
func (v FontVariant) StandardFont() string {
	if name, ok := standardFonts[v]; ok {
		return name
	}
	return standardFonts[VariantRegular]
}

// TextInsertion describes one text object of a re-rendered page.
type TextInsertion struct {
	Origin  Point
	Text    string
	Variant FontVariant
	Size    float64
	Color   RGBA
}

// Insertions returns one insertion per retained fragment, in source order.
func (pc *PageClassification) Insertions() []TextInsertion {
	var out []TextInsertion
	for _, f := range pc.Retained() {
		out = append(out, TextInsertion{
			Origin:  f.Origin,
			Text:    f.Text,
			Variant: f.Variant(),
			Size:    f.Size,
			Color:   f.Color,
		})
	}
	return out
}

// Text returns the page's cleaned text. Retained fragments are each followed
// by a space; a line that kept something ends with a newline.
func (pc *PageClassification) Text() string {
	var sb strings.Builder
	for _, block := range pc.Blocks {
		for _, line := range block.Lines {
			for _, f := range line.Fragments {
				if f.Retained() {
					sb.WriteString(f.Text)
					sb.WriteByte(' ')
				}
			}
			if pc.lineBreak(line) {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}

func (pc *PageClassification) lineBreak(line ClassifiedLine) bool {
	if !pc.config.LegacyLineBreaks {
		return line.HasRetained()
	}
	if len(line.Fragments) == 0 {
		return false
	}
	return line.Fragments[len(line.Fragments)-1].Retained()
}

// DocumentText joins the cleaned text of every page. Each page is followed by
// a blank line, or by marker instead when marker is non-empty.
func DocumentText(pages []*PageClassification, marker string) string {
	var sb strings.Builder
	for _, pc := range pages {
		sb.WriteString(pc.Text())
		if marker != "" {
			sb.WriteString(marker)
		} else {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
