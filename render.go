package pdfclean

import (
	"bytes"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/structs"
	"github.com/pkg/errors"
)

// RenderPDF writes the retained fragments of every page into a new PDF and
// returns its bytes. Each output page has the size of its source page.
func RenderPDF(instance pdfium.Pdfium, pages []*PageClassification) ([]byte, error) {
	doc, err := instance.FPDF_CreateNewDocument(&requests.FPDF_CreateNewDocument{})
	if err != nil {
		return nil, wrapError(KindRender, errors.Wrap(err, "failed to create output document"))
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc.Document,
	})

	for i, pc := range pages {
		if err := renderPage(instance, doc.Document, i, pc); err != nil {
			return nil, wrapError(KindRender, errors.Wrapf(err, "failed to render page %d", pc.Number))
		}
	}

	var buf bytes.Buffer
	if _, err := instance.FPDF_SaveAsCopy(&requests.FPDF_SaveAsCopy{
		Flags:      requests.SaveFlagNoIncremental,
		Document:   doc.Document,
		FileWriter: &buf,
	}); err != nil {
		return nil, wrapError(KindRender, errors.Wrap(err, "failed to save output document"))
	}

	return buf.Bytes(), nil
}

func renderPage(instance pdfium.Pdfium, doc references.FPDF_DOCUMENT, index int, pc *PageClassification) error {
	pageResp, err := instance.FPDFPage_New(&requests.FPDFPage_New{
		Document:  doc,
		PageIndex: index,
		Width:     pc.Width,
		Height:    pc.Height,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create page")
	}
	defer instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: pageResp.Page,
	})

	page := requests.Page{ByReference: &pageResp.Page}

	for _, ins := range pc.Insertions() {
		if err := insertText(instance, doc, page, pc.Height, ins); err != nil {
			return err
		}
	}

	if _, err := instance.FPDFPage_GenerateContent(&requests.FPDFPage_GenerateContent{
		Page: page,
	}); err != nil {
		return errors.Wrap(err, "failed to generate page content")
	}

	return nil
}

func insertText(instance pdfium.Pdfium, doc references.FPDF_DOCUMENT, page requests.Page, pageHeight float64, ins TextInsertion) error {
	obj, err := instance.FPDFPageObj_NewTextObj(&requests.FPDFPageObj_NewTextObj{
		Document: doc,
		Font:     ins.Variant.StandardFont(),
		FontSize: float32(ins.Size),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create text object")
	}

	if _, err := instance.FPDFText_SetText(&requests.FPDFText_SetText{
		PageObject: obj.PageObject,
		Text:       ins.Text,
	}); err != nil {
		return errors.Wrap(err, "failed to set text")
	}

	color := ins.Color
	if color.A == 0 {
		// A zero alpha comes from fragments built without a color
		color.A = 255
	}
	if _, err := instance.FPDFPageObj_SetFillColor(&requests.FPDFPageObj_SetFillColor{
		PageObject: obj.PageObject,
		FillColor: structs.FPDF_COLOR{
			R: color.R,
			G: color.G,
			B: color.B,
			A: color.A,
		},
	}); err != nil {
		return errors.Wrap(err, "failed to set fill color")
	}

	// Fragment origins are top-down; PDF space starts at the bottom-left
	if _, err := instance.FPDFPageObj_Transform(&requests.FPDFPageObj_Transform{
		PageObject: obj.PageObject,
		Transform: structs.FPDF_FS_MATRIX{
			A: 1,
			D: 1,
			E: float32(ins.Origin.X),
			F: float32(pageHeight - ins.Origin.Y),
		},
	}); err != nil {
		return errors.Wrap(err, "failed to position text")
	}

	if _, err := instance.FPDFPage_InsertObject(&requests.FPDFPage_InsertObject{
		Page:       page,
		PageObject: obj.PageObject,
	}); err != nil {
		return errors.Wrap(err, "failed to insert text object")
	}

	return nil
}
