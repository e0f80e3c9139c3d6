package pdfclean

import (
	"math"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/enums"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
)

// rawPathPoint is a path point as read from pdfium, already in page space.
type rawPathPoint struct {
	PathPoint
	Close bool
}

// affine is a PDF transformation matrix [a b c d e f].
type affine struct {
	a, b, c, d, e, f float64
}

var identity = affine{a: 1, d: 1}

func (m affine) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

// extractSegmentsFromPage reads every path object of a page and returns its
// subpaths as line segments in top-down page coordinates.
func extractSegmentsFromPage(instance pdfium.Pdfium, page references.FPDF_PAGE, pageHeight float64, config Config) ([]LineSegment, error) {
	countResp, err := instance.FPDFPage_CountObjects(&requests.FPDFPage_CountObjects{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return nil, err
	}

	var segments []LineSegment

	for i := 0; i < countResp.Count; i++ {
		objResp, err := instance.FPDFPage_GetObject(&requests.FPDFPage_GetObject{
			Page: requests.Page{
				ByReference: &page,
			},
			Index: i,
		})
		if err != nil {
			continue
		}

		typeResp, err := instance.FPDFPageObj_GetType(&requests.FPDFPageObj_GetType{
			PageObject: objResp.PageObject,
		})
		if err != nil || typeResp.Type != enums.FPDF_PAGEOBJ_PATH {
			continue
		}

		points := readPathPoints(instance, objResp.PageObject, pageHeight)
		segments = append(segments, pathToSegments(points, config)...)
	}

	return segments, nil
}

// readPathPoints returns the points of a path object. Segments pdfium cannot
// read are skipped.
func readPathPoints(instance pdfium.Pdfium, obj references.FPDF_PAGEOBJECT, pageHeight float64) []rawPathPoint {
	matrix := identity
	if m, err := instance.FPDFPageObj_GetMatrix(&requests.FPDFPageObj_GetMatrix{
		PageObject: obj,
	}); err == nil {
		matrix = affine{
			a: float64(m.Matrix.A),
			b: float64(m.Matrix.B),
			c: float64(m.Matrix.C),
			d: float64(m.Matrix.D),
			e: float64(m.Matrix.E),
			f: float64(m.Matrix.F),
		}
	}

	segCount, err := instance.FPDFPath_CountSegments(&requests.FPDFPath_CountSegments{
		PageObject: obj,
	})
	if err != nil {
		return nil
	}

	points := make([]rawPathPoint, 0, segCount.Count)
	for j := 0; j < segCount.Count; j++ {
		seg, err := instance.FPDFPath_GetPathSegment(&requests.FPDFPath_GetPathSegment{
			PageObject: obj,
			Index:      j,
		})
		if err != nil {
			continue
		}

		pt, err := instance.FPDFPathSegment_GetPoint(&requests.FPDFPathSegment_GetPoint{
			PathSegment: seg.PathSegment,
		})
		if err != nil {
			continue
		}

		kind := SegmentLineTo
		if typ, err := instance.FPDFPathSegment_GetType(&requests.FPDFPathSegment_GetType{
			PathSegment: seg.PathSegment,
		}); err == nil {
			switch typ.Type {
			case enums.FPDF_SEGMENT_MOVETO:
				kind = SegmentMoveTo
			case enums.FPDF_SEGMENT_BEZIERTO:
				kind = SegmentBezierTo
			}
		}

		closed := false
		if c, err := instance.FPDFPathSegment_GetClose(&requests.FPDFPathSegment_GetClose{
			PathSegment: seg.PathSegment,
		}); err == nil {
			closed = c.IsClose
		}

		x, y := matrix.apply(float64(pt.X), float64(pt.Y))
		points = append(points, rawPathPoint{
			PathPoint: PathPoint{
				// Convert PDF coordinates (origin bottom-left) to top-down
				Point: Point{X: x, Y: pageHeight - y},
				Kind:  kind,
			},
			Close: closed,
		})
	}

	return points
}

// pathToSegments splits a path at every move-to. Closed thin rectangles are
// collapsed to a two-point rule when enabled.
func pathToSegments(points []rawPathPoint, config Config) []LineSegment {
	var (
		segments []LineSegment
		current  []rawPathPoint
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		if config.ThinRuleRectangles {
			if rule, ok := thinRectangleRule(current, config.HorizontalEpsilon); ok {
				segments = append(segments, rule)
				current = nil
				return
			}
		}
		seg := LineSegment{Points: make([]PathPoint, 0, len(current))}
		for _, p := range current {
			seg.Points = append(seg.Points, p.PathPoint)
		}
		segments = append(segments, seg)
		current = nil
	}

	for _, p := range points {
		if p.Kind == SegmentMoveTo {
			flush()
		}
		current = append(current, p)
	}
	flush()

	return segments
}

// thinRectangleRule reports whether a subpath is a closed axis-aligned
// rectangle thinner than epsilon, and returns the rule along its centre.
func thinRectangleRule(points []rawPathPoint, epsilon float64) (LineSegment, bool) {
	if len(points) < 4 || len(points) > 5 {
		return LineSegment{}, false
	}

	first, last := points[0], points[len(points)-1]
	closed := last.Close || (len(points) == 5 && samePoint(first.Point, last.Point))
	if !closed {
		return LineSegment{}, false
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if p.Kind == SegmentBezierTo {
			return LineSegment{}, false
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	const tol = 0.01
	for _, p := range points {
		onX := math.Abs(p.X-minX) < tol || math.Abs(p.X-maxX) < tol
		onY := math.Abs(p.Y-minY) < tol || math.Abs(p.Y-maxY) < tol
		if !onX || !onY {
			return LineSegment{}, false
		}
	}

	height := maxY - minY
	if height >= epsilon || maxX-minX <= height {
		return LineSegment{}, false
	}

	centre := (minY + maxY) / 2
	return LineSegment{Points: []PathPoint{
		{Point: Point{X: minX, Y: centre}, Kind: SegmentMoveTo},
		{Point: Point{X: maxX, Y: centre}, Kind: SegmentLineTo},
	}}, true
}

func samePoint(a, b Point) bool {
	const tol = 0.01
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol
}
