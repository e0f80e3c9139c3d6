package pdfclean

// FindSeparator locates the footnote rule of a page: the lowest horizontal
// two-point segment. It returns false when the page has no such segment.
func FindSeparator(segments []LineSegment, epsilon float64) (float64, bool) {
	var (
		y     float64
		found bool
	)

	for _, seg := range segments {
		if !seg.IsHorizontal(epsilon) {
			continue
		}
		// Several rules may sit above the footnote rule; keep the one closest
		// to the footer.
		if segY := seg.Points[0].Y; !found || segY > y {
			y = segY
			found = true
		}
	}

	return y, found
}
