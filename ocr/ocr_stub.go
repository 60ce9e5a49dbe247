//go:build !ocr

// Package ocr recognizes positioned text lines in page images.
//
// This is the stub used when the "ocr" build tag is not set. Every
// operation returns ErrOCRNotEnabled. Rebuild with -tags ocr to enable it.
package ocr

// Enabled reports whether OCR support was compiled in
const Enabled = false

// Client is a stub OCR client that returns errors for all operations.
type Client struct{}

// New returns ErrOCRNotEnabled.
func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op. It is safe to call on a nil client.
func (c *Client) Close() error {
	return nil
}

// SetLanguage returns ErrOCRNotEnabled.
func (c *Client) SetLanguage(lang string) error {
	return ErrOCRNotEnabled
}

// RecognizeText returns ErrOCRNotEnabled.
func (c *Client) RecognizeText(imageData []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

// RecognizeLines returns ErrOCRNotEnabled.
func (c *Client) RecognizeLines(imageData []byte) ([]Line, error) {
	return nil, ErrOCRNotEnabled
}
