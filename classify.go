package pdfclean

import (
	"strings"
	"unicode"
)

// DiscardReason explains why a fragment was dropped.
type DiscardReason int

const (
	ReasonNone DiscardReason = iota
	ReasonFootnote
	ReasonPageNumber
)

func (r DiscardReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonFootnote:
		return "footnote"
	case ReasonPageNumber:
		return "page-number"
	default:
		return "unknown"
	}
}

// ClassifiedFragment is a fragment tagged with its classification.
type ClassifiedFragment struct {
	Fragment
	Reason DiscardReason
}

// Retained reports whether the fragment belongs to the body text.
func (f ClassifiedFragment) Retained() bool {
	return f.Reason == ReasonNone
}

// ClassifiedLine holds the classified fragments of one source line.
type ClassifiedLine struct {
	Fragments []ClassifiedFragment
}

// HasRetained reports whether any fragment of the line was kept.
func (l ClassifiedLine) HasRetained() bool {
	for _, f := range l.Fragments {
		if f.Retained() {
			return true
		}
	}
	return false
}

// ClassifiedBlock holds the classified lines of one source block.
type ClassifiedBlock struct {
	Lines []ClassifiedLine
}

// PageClassification is the result of classifying one page.
type PageClassification struct {
	Number       int
	Width        float64
	Height       float64
	Separator    float64
	HasSeparator bool
	Blocks       []ClassifiedBlock
	config       Config
}

// Retained returns the kept fragments in source order.
func (pc *PageClassification) Retained() []Fragment {
	var out []Fragment
	pc.each(func(f ClassifiedFragment) {
		if f.Retained() {
			out = append(out, f.Fragment)
		}
	})
	return out
}

// Count returns how many fragments were tagged with the given reason.
func (pc *PageClassification) Count(reason DiscardReason) int {
	var n int
	pc.each(func(f ClassifiedFragment) {
		if f.Reason == reason {
			n++
		}
	})
	return n
}

func (pc *PageClassification) each(fn func(ClassifiedFragment)) {
	for _, block := range pc.Blocks {
		for _, line := range block.Lines {
			for _, f := range line.Fragments {
				fn(f)
			}
		}
	}
}

// IsPageNumber reports whether text at originY lies in the footer zone and
// consists only of decimal digits.
func IsPageNumber(text string, originY, pageHeight, footerMargin float64) bool {
	if originY < pageHeight-footerMargin {
		return false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, r := range text {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ClassifyFragment decides whether a fragment is body text, a footnote or a
// page number. separatorY is only consulted when hasSeparator is true.
func ClassifyFragment(f Fragment, pageHeight, separatorY float64, hasSeparator bool, cfg Config) DiscardReason {
	size := f.RoundedSize()

	isFootnote := size == cfg.FootnoteSize
	if isFootnote && cfg.SeparatorOverride && hasSeparator && f.Origin.Y < separatorY {
		isFootnote = false
	}
	if isFootnote {
		return ReasonFootnote
	}

	if size == cfg.BodySize && IsPageNumber(f.Text, f.Origin.Y, pageHeight, cfg.FooterMargin) {
		return ReasonPageNumber
	}

	return ReasonNone
}

// ClassifyPage tags every fragment of a page. Only the page itself is read,
// so pages may be classified in any order.
func ClassifyPage(page Page, cfg Config) *PageClassification {
	sepY, hasSep := FindSeparator(page.Segments, cfg.HorizontalEpsilon)

	pc := &PageClassification{
		Number:       page.Number,
		Width:        page.Width,
		Height:       page.Height,
		Separator:    sepY,
		HasSeparator: hasSep,
		Blocks:       make([]ClassifiedBlock, 0, len(page.Blocks)),
		config:       cfg,
	}

	for _, block := range page.Blocks {
		cb := ClassifiedBlock{Lines: make([]ClassifiedLine, 0, len(block.Lines))}
		for _, line := range block.Lines {
			cl := ClassifiedLine{Fragments: make([]ClassifiedFragment, 0, len(line.Fragments))}
			for _, f := range line.Fragments {
				cl.Fragments = append(cl.Fragments, ClassifiedFragment{
					Fragment: f,
					Reason:   ClassifyFragment(f, page.Height, sepY, hasSep, cfg),
				})
			}
			cb.Lines = append(cb.Lines, cl)
		}
		pc.Blocks = append(pc.Blocks, cb)
	}

	return pc
}

// ClassifyDocument classifies every page of doc in order.
func ClassifyDocument(doc *Document, cfg Config) []*PageClassification {
	out := make([]*PageClassification, 0, len(doc.Pages))
	for _, page := range doc.Pages {
		out = append(out, ClassifyPage(page, cfg))
	}
	return out
}
