package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/tsawler/outliner/heading"
	"github.com/tsawler/outliner/model"
)

// FeatureNames lists the features in vector order
var FeatureNames = []string{
	"font_size",
	"is_bold",
	"text_length",
	"x0",
	"y0",
	"is_uppercase",
	"line_indent",
	"ends_with_period",
	"page_number",
	"appears_on_many_pages",
	"heading_score",
}

// NumFeatures is the length of a feature vector
const NumFeatures = 11

// ErrMissingFeature is returned when a line lacks a usable value for a feature
var ErrMissingFeature = errors.New("missing feature")

// Features builds the classifier input for a line
func Features(line model.Line) ([]float64, error) {
	if line.PageNumber < 1 {
		return nil, fmt.Errorf("%w: page_number %d", ErrMissingFeature, line.PageNumber)
	}
	if !isFinite(line.FontSize) || line.FontSize <= 0 {
		return nil, fmt.Errorf("%w: font_size %v", ErrMissingFeature, line.FontSize)
	}
	if !isFinite(line.X0) || !isFinite(line.Y0) || !isFinite(line.LineIndent) {
		return nil, fmt.Errorf("%w: position (%v, %v)", ErrMissingFeature, line.X0, line.Y0)
	}

	return []float64{
		line.FontSize,
		boolFeature(line.IsBold),
		float64(line.TextLength),
		line.X0,
		line.Y0,
		boolFeature(line.IsUppercase),
		line.LineIndent,
		boolFeature(line.EndsWithPeriod),
		float64(line.PageNumber),
		boolFeature(line.AppearsOnManyPages),
		float64(heading.Score(line.Text)),
	}, nil
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
