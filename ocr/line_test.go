package ocr

import "testing"

func TestLineScale(t *testing.T) {
	line := Line{Text: "Scanned Heading", X0: 100, Y0: 200, X1: 500, Y1: 250}

	// 1224x1584 pixels covering a 612x792 point page is a factor of two
	x0, y0, height := line.Scale(1224, 1584, 612, 792)
	if x0 != 50 || y0 != 100 || height != 25 {
		t.Errorf("Scale() = (%v, %v, %v), want (50, 100, 25)", x0, y0, height)
	}

	if x0, y0, height := line.Scale(0, 0, 612, 792); x0 != 0 || y0 != 0 || height != 0 {
		t.Error("Scale() with empty image should return zeros")
	}
}
