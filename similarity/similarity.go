// Package similarity scores how distinct a line is from the lines around it.
//
// A heading usually shares few words with the paragraph it introduces, so a
// high distinctness hints at a heading. The score is a diagnostic and is not
// part of the classifier features.
package similarity

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DefaultWindow is the number of lines taken on each side of the target line
const DefaultWindow = 3

// Vector is a bag of case-folded words with their counts
type Vector map[string]int

// NewVector tokenizes s into case-folded words of letters and digits
func NewVector(s string) Vector {
	v := make(Vector)
	folded := cases.Fold().String(s)
	for _, w := range strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		v[w]++
	}
	return v
}

// Cosine returns the cosine similarity of two vectors, 0 when either is empty
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, na, nb float64
	for w, ca := range a {
		na += float64(ca * ca)
		if cb, ok := b[w]; ok {
			dot += float64(ca * cb)
		}
	}
	for _, cb := range b {
		nb += float64(cb * cb)
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Distinctness returns 1 minus the mean similarity of lines[i] to up to k
// lines before and k lines after it, rounded to 4 decimals. It is 0 when the
// line has no neighbours or i is out of range.
func Distinctness(lines []string, i, k int) float64 {
	if i < 0 || i >= len(lines) || k <= 0 {
		return 0
	}

	start := max(i-k, 0)
	end := min(i+k+1, len(lines))
	if end-start <= 1 {
		return 0
	}

	target := NewVector(lines[i])
	var sum float64
	n := 0
	for j := start; j < end; j++ {
		if j == i {
			continue
		}
		sum += Cosine(target, NewVector(lines[j]))
		n++
	}

	return math.Round((1-sum/float64(n))*10000) / 10000
}

// Scores returns Distinctness for every line with window k
func Scores(lines []string, k int) []float64 {
	scores := make([]float64, len(lines))
	for i := range lines {
		scores[i] = Distinctness(lines, i, k)
	}
	return scores
}
