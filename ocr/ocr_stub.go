//go:build !ocr

package ocr

// Client is the stand-in used when Tesseract support is not compiled in.
// Every operation fails with ErrOCRNotEnabled.
type Client struct{}

// New always fails with ErrOCRNotEnabled. Rebuild with -tags ocr.
func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op, also on a nil client
func (c *Client) Close() error {
	return nil
}

func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

func (c *Client) SetLanguage(lang string) error {
	return ErrOCRNotEnabled
}

func (c *Client) SetSparseText() error {
	return ErrOCRNotEnabled
}
