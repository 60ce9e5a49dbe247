package outliner

import (
	"fmt"
	"strings"
)

// WarningCode identifies the kind of non-fatal problem met during extraction.
type WarningCode string

const (
	// WarnMissingFeature marks a line skipped because a feature could not be built.
	WarnMissingFeature WarningCode = "missing_feature"

	// WarnClassifier marks a line skipped because the classifier failed on it.
	WarnClassifier WarningCode = "classifier_error"

	// WarnOCRUnavailable is reported when OCR was requested but cannot run.
	WarnOCRUnavailable WarningCode = "ocr_unavailable"

	// WarnMetadata is reported when document metadata could not be read.
	WarnMetadata WarningCode = "metadata"
)

// Warning is a non-fatal issue. Extraction still produced a result, but it
// may be incomplete.
type Warning struct {
	Code    WarningCode
	Message string

	// Page is the 1-based page the warning refers to, or 0 for the document
	Page int
}

// String returns a one-line description of the warning.
func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("[%s] page %d: %s", w.Code, w.Page, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// FormatWarnings joins warnings into a single human-readable string.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}

// CountWarnings returns the number of warnings with the given code.
func CountWarnings(warnings []Warning, code WarningCode) int {
	n := 0
	for _, w := range warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}
