package pdfclean

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/ivanvanderbyl/markdown"
)

// emphasis applies the markdown style of each font variant.
var emphasis = map[FontVariant]func(string) string{
	VariantRegular:    func(s string) string { return s },
	VariantBold:       markdown.Bold,
	VariantItalic:     markdown.Italic,
	VariantBoldItalic: markdown.BoldItalic,
}

// ToMarkdown renders the retained text of classified pages as markdown. Each
// source block becomes a paragraph with its lines joined by spaces.
func ToMarkdown(pages []*PageClassification, config Config) string {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	for i, pc := range pages {
		if i > 0 && config.IncludePageBreaks {
			md.HorizontalRule().LF()
		}

		for _, block := range pc.Blocks {
			if text := blockMarkdown(block); text != "" {
				md.PlainText(text)
				md.LF()
			}
		}
	}

	if err := md.Build(); err != nil {
		// If there's an error building the markdown, fall back to empty string
		return ""
	}

	return buf.String()
}

// markdownEscaper escapes the inline metacharacters of source text.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

// orderedMarker matches text that would open an ordered list item.
var orderedMarker = regexp.MustCompile(`^(\d+)[.)](?:\s|$)`)

// escapeMarkdown makes text render literally, including text that would
// otherwise open a list item at the start of a paragraph.
func escapeMarkdown(text string) string {
	text = markdownEscaper.Replace(text)

	if m := orderedMarker.FindStringSubmatchIndex(text); m != nil {
		return text[:m[3]] + `\` + text[m[3]:]
	}
	if len(text) > 0 && (text[0] == '-' || text[0] == '+') &&
		(len(text) == 1 || text[1] == ' ' || text[1] == '\t') {
		return `\` + text
	}
	return text
}

// blockMarkdown formats the retained fragments of a block.
func blockMarkdown(block ClassifiedBlock) string {
	var parts []string
	for _, line := range block.Lines {
		for _, f := range line.Fragments {
			if !f.Retained() {
				continue
			}
			if s := applyInlineFormatting(f.Fragment); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

// applyInlineFormatting applies markdown emphasis to a fragment based on its style.
func applyInlineFormatting(f Fragment) string {
	text := strings.TrimSpace(f.Text)
	if text == "" {
		return ""
	}
	return emphasis[f.Variant()](escapeMarkdown(text))
}
