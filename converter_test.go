package pdfclean_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanvanderbyl/pdfclean"
)

// setupPDFium initialises a pdfium instance for testing.
func setupPDFium(t *testing.T) pdfium.Pdfium {
	t.Helper()

	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
	})

	instance, err := pool.GetInstance(time.Second * 30)
	require.NoError(t, err)

	return instance
}

// fixturePDF renders a one page PDF holding body text, a footnote-sized
// line and a page number. Classification thresholds no fragment can match
// keep everything in the fixture.
func fixturePDF(t *testing.T, instance pdfium.Pdfium) []byte {
	t.Helper()

	keepAll := pdfclean.DefaultConfig()
	keepAll.FootnoteSize = 99
	keepAll.BodySize = 98

	page := pdfclean.Page{
		Number: 1,
		Width:  612,
		Height: letterHeight,
		Blocks: []pdfclean.TextBlock{
			{Lines: []pdfclean.TextLine{{Fragments: []pdfclean.Fragment{frag("Introduction", 12, 300)}}}},
			{Lines: []pdfclean.TextLine{{Fragments: []pdfclean.Fragment{frag("Ibid", 10, 650)}}}},
			{Lines: []pdfclean.TextLine{{Fragments: []pdfclean.Fragment{frag("3", 12, 780)}}}},
		},
	}

	data, err := pdfclean.RenderPDF(instance, []*pdfclean.PageClassification{pdfclean.ClassifyPage(page, keepAll)})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	return data
}

func TestConverter_CleanBytes(t *testing.T) {
	instance := setupPDFium(t)
	data := fixturePDF(t, instance)

	converter := pdfclean.NewConverter(instance)
	text, err := converter.CleanBytes(data)
	require.NoError(t, err)

	assert.Contains(t, text, "Introduction")
	assert.NotContains(t, text, "Ibid")
	assert.NotContains(t, text, "3")
}

func TestConverter_Extract(t *testing.T) {
	instance := setupPDFium(t)
	data := fixturePDF(t, instance)

	doc, err := pdfclean.NewConverter(instance).ExtractBytes(data)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	assert.Equal(t, 1, page.Number)
	assert.InDelta(t, 612, page.Width, 0.01)
	assert.InDelta(t, letterHeight, page.Height, 0.01)
	assert.Equal(t, 3, page.FragmentCount())
	assert.Empty(t, page.Segments)
}

func TestConverter_RenderFileRoundTrip(t *testing.T) {
	instance := setupPDFium(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "input.pdf")
	require.NoError(t, os.WriteFile(input, fixturePDF(t, instance), 0o644))

	converter := pdfclean.NewConverter(instance)
	output := filepath.Join(dir, "clean.pdf")
	require.NoError(t, converter.RenderFile(input, output))
	require.FileExists(t, output)

	info, err := converter.GetDocumentInfo(output)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PageCount)

	text, err := converter.CleanFile(output)
	require.NoError(t, err)
	assert.Contains(t, text, "Introduction")
	assert.NotContains(t, text, "Ibid")
}

func TestConverter_Run(t *testing.T) {
	instance := setupPDFium(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "input.pdf")
	require.NoError(t, os.WriteFile(input, fixturePDF(t, instance), 0o644))

	cfg := pdfclean.DefaultConfig()
	cfg.Format = pdfclean.FormatMarkdown
	output := filepath.Join(dir, "clean.md")

	require.NoError(t, pdfclean.NewConverterWithConfig(instance, cfg).Run(input, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Introduction")
	assert.NotContains(t, string(data), "Ibid")
}

func TestConverter_CleanFileWithMetrics(t *testing.T) {
	instance := setupPDFium(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "input.pdf")
	require.NoError(t, os.WriteFile(input, fixturePDF(t, instance), 0o644))

	_, metrics, err := pdfclean.NewConverter(instance).CleanFileWithMetrics(input)
	require.NoError(t, err)

	assert.Len(t, metrics.PageExtractions, 1)
	assert.Equal(t, 1, metrics.Statistics.TotalPages)
	assert.Equal(t, 1, metrics.Statistics.RetainedFragments)
	assert.Equal(t, 1, metrics.Statistics.FootnoteFragments)
	assert.Equal(t, 1, metrics.Statistics.PageNumberFragments)
	assert.Positive(t, metrics.TotalTime)
}

func TestConverter_MissingInput(t *testing.T) {
	instance := setupPDFium(t)
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.pdf")
	output := filepath.Join(dir, "clean.txt")

	err := pdfclean.NewConverter(instance).Run(missing, output)
	require.Error(t, err)
	assert.Equal(t, pdfclean.KindInput, pdfclean.KindOf(err))
	assert.Contains(t, err.Error(), missing)
	assert.NoFileExists(t, output)
}

func TestConverter_InvalidPageRange(t *testing.T) {
	instance := setupPDFium(t)
	dir := t.TempDir()

	input := filepath.Join(dir, "input.pdf")
	require.NoError(t, os.WriteFile(input, fixturePDF(t, instance), 0o644))

	_, err := pdfclean.NewConverter(instance).CleanPageRange(input, 3, 1)
	require.Error(t, err)
	assert.Equal(t, pdfclean.KindConfig, pdfclean.KindOf(err))
}

func TestConverter_RenderPageRange(t *testing.T) {
	instance := setupPDFium(t)
	dir := t.TempDir()

	keepAll := pdfclean.DefaultConfig()
	keepAll.FootnoteSize = 99
	keepAll.BodySize = 98

	pageWith := func(number int, text string) *pdfclean.PageClassification {
		return pdfclean.ClassifyPage(pdfclean.Page{
			Number: number,
			Width:  612,
			Height: letterHeight,
			Blocks: []pdfclean.TextBlock{{Lines: []pdfclean.TextLine{{Fragments: []pdfclean.Fragment{frag(text, 12, 300)}}}}},
		}, keepAll)
	}

	data, err := pdfclean.RenderPDF(instance, []*pdfclean.PageClassification{
		pageWith(1, "Preface"),
		pageWith(2, "Chapter"),
	})
	require.NoError(t, err)

	input := filepath.Join(dir, "input.pdf")
	require.NoError(t, os.WriteFile(input, data, 0o644))

	cfg := pdfclean.DefaultConfig()
	cfg.Format = pdfclean.FormatPDF
	converter := pdfclean.NewConverterWithConfig(instance, cfg)

	output := filepath.Join(dir, "clean.pdf")
	require.NoError(t, converter.RunPageRange(input, output, 1, 1))

	info, err := converter.GetDocumentInfo(output)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PageCount)

	text, err := pdfclean.NewConverter(instance).CleanFile(output)
	require.NoError(t, err)
	assert.Contains(t, text, "Chapter")
	assert.NotContains(t, text, "Preface")
}
