package ocr

import "errors"

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Line is one recognized text line. Coordinates are pixels with the origin
// at the top-left corner of the image.
type Line struct {
	Text       string
	X0, Y0     int
	X1, Y1     int
	Confidence float64
}

// Height returns the pixel height of the line's box
func (l Line) Height() int {
	return l.Y1 - l.Y0
}

// Scale converts the line's box from image pixels to page units, given the
// image size in pixels and the page size it covers.
func (l Line) Scale(imageWidth, imageHeight int, pageWidth, pageHeight float64) (x0, y0, height float64) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return 0, 0, 0
	}
	sx := pageWidth / float64(imageWidth)
	sy := pageHeight / float64(imageHeight)
	return float64(l.X0) * sx, float64(l.Y0) * sy, float64(l.Height()) * sy
}
