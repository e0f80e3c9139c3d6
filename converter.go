package pdfclean

import (
	"io"
	"time"
	"unicode/utf8"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ProcessingMetrics contains timing and statistics for a cleaning run
type ProcessingMetrics struct {
	TotalTime       time.Duration
	DocumentOpen    time.Duration
	PageExtractions []PageMetrics
	Statistics      DocumentStatistics
}

// PageMetrics contains timing for a single page
type PageMetrics struct {
	PageNumber int
	Duration   time.Duration
}

// DocumentStatistics contains document-level classification counts
type DocumentStatistics struct {
	TotalPages          int
	PagesWithSeparator  int
	RetainedFragments   int
	FootnoteFragments   int
	PageNumberFragments int
	RetainedCharacters  int
}

// Converter extracts body text from PDFs using pdfium.
type Converter struct {
	instance pdfium.Pdfium
	config   Config
	logger   zerolog.Logger
}

// NewConverter creates a new converter with default configuration.
func NewConverter(instance pdfium.Pdfium) *Converter {
	return NewConverterWithConfig(instance, DefaultConfig())
}

// NewConverterWithConfig creates a new converter with custom configuration.
func NewConverterWithConfig(instance pdfium.Pdfium, config Config) *Converter {
	return &Converter{
		instance: instance,
		config:   config,
		logger:   zerolog.Nop(),
	}
}

// WithLogger sets the logger used for progress and metrics.
func (c *Converter) WithLogger(logger zerolog.Logger) *Converter {
	c.logger = logger
	return c
}

// Config returns the converter configuration.
func (c *Converter) Config() Config {
	return c.config
}

// openDocument opens a document and returns a function that closes it.
func (c *Converter) openDocument(req *requests.OpenDocument, source string) (references.FPDF_DOCUMENT, func(), error) {
	doc, err := c.instance.OpenDocument(req)
	if err != nil {
		return "", nil, inputError(source, errors.Wrap(err, "failed to open PDF document"))
	}
	closeDoc := func() {
		c.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
			Document: doc.Document,
		})
	}
	return doc.Document, closeDoc, nil
}

// Extract builds the page model of a PDF file.
func (c *Converter) Extract(filePath string) (*Document, error) {
	doc, _, err := c.extractFile(filePath, 0, -1)
	return doc, err
}

// ExtractBytes builds the page model of PDF bytes.
func (c *Converter) ExtractBytes(pdfBytes []byte) (*Document, error) {
	docRef, closeDoc, err := c.openDocument(&requests.OpenDocument{
		File: &pdfBytes,
	}, "<bytes>")
	if err != nil {
		return nil, err
	}
	defer closeDoc()

	doc, _, err := c.extractDocument(docRef, 0, -1)
	return doc, err
}

// ExtractReader builds the page model of a PDF read from an io.ReadSeeker.
func (c *Converter) ExtractReader(reader io.ReadSeeker) (*Document, error) {
	docRef, closeDoc, err := c.openDocument(&requests.OpenDocument{
		FileReader: reader,
	}, "<reader>")
	if err != nil {
		return nil, err
	}
	defer closeDoc()

	doc, _, err := c.extractDocument(docRef, 0, -1)
	return doc, err
}

func (c *Converter) extractFile(filePath string, startPage, endPage int) (*Document, []PageMetrics, error) {
	docRef, closeDoc, err := c.openDocument(&requests.OpenDocument{
		FilePath: &filePath,
	}, filePath)
	if err != nil {
		return nil, nil, err
	}
	defer closeDoc()

	return c.extractDocument(docRef, startPage, endPage)
}

// extractDocument extracts pages startPage..endPage (0-indexed, inclusive).
// A negative endPage means the last page.
func (c *Converter) extractDocument(docRef references.FPDF_DOCUMENT, startPage, endPage int) (*Document, []PageMetrics, error) {
	pageCount, err := c.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: docRef,
	})
	if err != nil {
		return nil, nil, wrapError(KindExtraction, errors.Wrap(err, "failed to get page count"))
	}

	if startPage < 0 {
		startPage = 0
	}
	if endPage < 0 || endPage >= pageCount.PageCount {
		endPage = pageCount.PageCount - 1
	}
	if pageCount.PageCount > 0 && startPage > endPage {
		return nil, nil, configError("invalid page range: start page must be <= end page")
	}

	document := &Document{
		Pages: make([]Page, 0, endPage-startPage+1),
	}

	var pageMetrics []PageMetrics
	for i := startPage; i <= endPage; i++ {
		pageStart := time.Now()
		page, err := c.extractPage(docRef, i)
		pageDuration := time.Since(pageStart)

		if err != nil {
			return nil, nil, wrapError(KindExtraction, errors.Wrapf(err, "failed to extract page %d", i+1))
		}
		document.Pages = append(document.Pages, *page)

		pageMetrics = append(pageMetrics, PageMetrics{
			PageNumber: i + 1,
			Duration:   pageDuration,
		})

		c.logger.Debug().
			Int("page", i+1).
			Int("total", pageCount.PageCount).
			Dur("duration", pageDuration).
			Msg("page extracted")
	}

	return document, pageMetrics, nil
}

// extractPage extracts a single page with all its structure.
func (c *Converter) extractPage(docRef references.FPDF_DOCUMENT, pageIndex int) (*Page, error) {
	pageResp, err := c.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: docRef,
		Index:    pageIndex,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load page")
	}
	defer c.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: pageResp.Page,
	})

	page, err := ExtractPage(c.instance, pageResp.Page, pageIndex+1, c.config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract page content")
	}

	return page, nil
}

// Classify tags every fragment of doc using the converter configuration.
func (c *Converter) Classify(doc *Document) []*PageClassification {
	return ClassifyDocument(doc, c.config)
}

// format renders classified pages as text or markdown.
func (c *Converter) format(pages []*PageClassification) (string, error) {
	switch c.config.Format {
	case FormatText, "":
		return DocumentText(pages, c.config.PageBreakMarker), nil
	case FormatMarkdown:
		return ToMarkdown(pages, c.config), nil
	default:
		return "", configError("format %q does not produce text", c.config.Format)
	}
}

// CleanFile returns the body text of a PDF file.
func (c *Converter) CleanFile(filePath string) (string, error) {
	return c.CleanPageRange(filePath, 0, -1)
}

// CleanBytes returns the body text of PDF bytes.
func (c *Converter) CleanBytes(pdfBytes []byte) (string, error) {
	doc, err := c.ExtractBytes(pdfBytes)
	if err != nil {
		return "", err
	}
	return c.format(c.Classify(doc))
}

// CleanReader returns the body text of a PDF read from an io.ReadSeeker.
func (c *Converter) CleanReader(reader io.ReadSeeker) (string, error) {
	doc, err := c.ExtractReader(reader)
	if err != nil {
		return "", err
	}
	return c.format(c.Classify(doc))
}

// CleanPageRange returns the body text of pages startPage..endPage
// (0-indexed, inclusive).
func (c *Converter) CleanPageRange(filePath string, startPage, endPage int) (string, error) {
	doc, _, err := c.extractFile(filePath, startPage, endPage)
	if err != nil {
		return "", err
	}

	pages := c.Classify(doc)
	c.logStatistics(pages)

	return c.format(pages)
}

// CleanFileWithMetrics cleans a PDF and returns both the text and metrics.
func (c *Converter) CleanFileWithMetrics(filePath string) (string, ProcessingMetrics, error) {
	startTime := time.Now()

	docRef, closeDoc, err := c.openDocument(&requests.OpenDocument{
		FilePath: &filePath,
	}, filePath)
	if err != nil {
		return "", ProcessingMetrics{}, err
	}
	defer closeDoc()

	documentOpenTime := time.Since(startTime)

	doc, pageMetrics, err := c.extractDocument(docRef, 0, -1)
	if err != nil {
		return "", ProcessingMetrics{}, err
	}

	pages := c.Classify(doc)
	text, err := c.format(pages)
	if err != nil {
		return "", ProcessingMetrics{}, err
	}

	metrics := ProcessingMetrics{
		TotalTime:       time.Since(startTime),
		DocumentOpen:    documentOpenTime,
		PageExtractions: pageMetrics,
		Statistics:      CalculateStatistics(pages),
	}

	if c.config.EnableMetricsLogging {
		logProcessingMetrics(c.logger, metrics)
	}

	return text, metrics, nil
}

// RenderFile writes a clean PDF of inputPath to outputPath. Nothing is
// written unless every page was extracted and rendered.
func (c *Converter) RenderFile(inputPath, outputPath string) error {
	return c.RenderPageRange(inputPath, outputPath, 0, -1)
}

// RenderPageRange writes a clean PDF of pages startPage..endPage
// (0-indexed, inclusive) of inputPath to outputPath.
func (c *Converter) RenderPageRange(inputPath, outputPath string, startPage, endPage int) error {
	doc, _, err := c.extractFile(inputPath, startPage, endPage)
	if err != nil {
		return err
	}

	pages := c.Classify(doc)
	c.logStatistics(pages)

	data, err := RenderPDF(c.instance, pages)
	if err != nil {
		return err
	}

	return WriteOutput(outputPath, data)
}

// Run cleans inputPath according to the configured format and writes the
// result to outputPath.
func (c *Converter) Run(inputPath, outputPath string) error {
	return c.RunPageRange(inputPath, outputPath, 0, -1)
}

// RunPageRange is Run restricted to pages startPage..endPage (0-indexed,
// inclusive). A negative endPage means the last page.
func (c *Converter) RunPageRange(inputPath, outputPath string, startPage, endPage int) error {
	if c.config.Format == FormatPDF {
		return c.RenderPageRange(inputPath, outputPath, startPage, endPage)
	}

	doc, _, err := c.extractFile(inputPath, startPage, endPage)
	if err != nil {
		return err
	}

	pages := c.Classify(doc)
	c.logStatistics(pages)

	text, err := c.format(pages)
	if err != nil {
		return err
	}

	return WriteOutput(outputPath, []byte(text))
}

func (c *Converter) logStatistics(pages []*PageClassification) {
	if !c.config.EnableMetricsLogging {
		return
	}
	logDocumentStatistics(c.logger, CalculateStatistics(pages))
}

// CalculateStatistics counts classification outcomes across pages.
func CalculateStatistics(pages []*PageClassification) DocumentStatistics {
	stats := DocumentStatistics{
		TotalPages: len(pages),
	}

	for _, pc := range pages {
		if pc.HasSeparator {
			stats.PagesWithSeparator++
		}
		stats.FootnoteFragments += pc.Count(ReasonFootnote)
		stats.PageNumberFragments += pc.Count(ReasonPageNumber)

		for _, f := range pc.Retained() {
			stats.RetainedFragments++
			stats.RetainedCharacters += utf8.RuneCountInString(f.Text)
		}
	}

	return stats
}

// GetDocumentInfo returns basic information about a PDF without cleaning it.
func (c *Converter) GetDocumentInfo(filePath string) (*DocumentInfo, error) {
	docRef, closeDoc, err := c.openDocument(&requests.OpenDocument{
		FilePath: &filePath,
	}, filePath)
	if err != nil {
		return nil, err
	}
	defer closeDoc()

	pageCount, err := c.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: docRef,
	})
	if err != nil {
		return nil, wrapError(KindExtraction, errors.Wrap(err, "failed to get page count"))
	}

	return &DocumentInfo{
		PageCount: pageCount.PageCount,
	}, nil
}

// DocumentInfo contains basic information about a PDF document.
type DocumentInfo struct {
	PageCount int
}
