// --- START OF FINAL REVISED FILE pkg/formatter/encoding/handler.go ---
package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

const (
	// sniffLen is the number of bytes used by http.DetectContentType
	sniffLen = 512
	// checkLen is a buffer size used for null byte checks.
	checkLen = 1024
	// Null byte threshold percentage to consider a file binary.
	nullThreshold = 0.15

	// AutoDetect asks Decode to sniff the encoding instead of using a fixed one.
	AutoDetect = "auto"
	utf8Name   = "utf-8"
)

// ErrUnknownEncoding is returned for encoding names charset.Lookup does not know.
var ErrUnknownEncoding = errors.New("unknown encoding")

// EncodingHandler converts file bytes to and from the UTF-8 text engines work on.
type EncodingHandler interface {
	// Decode converts content from the named encoding ("" = handler default,
	// "auto" = detect) to UTF-8 text. It returns the canonical name used so
	// that Encode can write the file back the same way.
	Decode(content []byte, name string) (text string, resolved string, err error)

	// Encode converts UTF-8 text to the named encoding.
	Encode(text string, name string) ([]byte, error)

	// IsBinary checks if the content is likely binary data based on MIME type
	// sniffing and null byte percentage.
	IsBinary(content []byte) bool
}

// charsetEncodingHandler implements EncodingHandler with golang.org/x/net/html/charset.
type charsetEncodingHandler struct {
	defaultEncoding string
}

// NewCharsetEncodingHandler creates a handler that falls back to defaultEncoding.
func NewCharsetEncodingHandler(defaultEncoding string) EncodingHandler { // minimal comment
	if strings.TrimSpace(defaultEncoding) == "" {
		defaultEncoding = utf8Name
	}
	return &charsetEncodingHandler{defaultEncoding: defaultEncoding}
}

// Validate reports whether name is usable with this package.
func Validate(name string) error {
	if name == "" || strings.EqualFold(name, AutoDetect) {
		return nil
	}
	if enc, _ := charset.Lookup(name); enc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return nil
}

// Decode implements the EncodingHandler interface.
func (h *charsetEncodingHandler) Decode(content []byte, name string) (string, string, error) { // minimal comment
	if name == "" {
		name = h.defaultEncoding
	}

	if strings.EqualFold(name, AutoDetect) {
		enc, detected, _ := charset.DetermineEncoding(content, "")
		if enc == nil || detected == "" || detected == utf8Name {
			return string(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))), utf8Name, nil
		}
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), enc.NewDecoder()))
		if err != nil {
			return "", detected, fmt.Errorf("failed to convert from '%s': %w", detected, err)
		}
		return string(decoded), detected, nil
	}

	enc, canonical := charset.Lookup(name)
	if enc == nil {
		return "", name, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	if canonical == utf8Name {
		return string(content), canonical, nil
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), enc.NewDecoder()))
	if err != nil {
		return "", canonical, fmt.Errorf("failed to convert from '%s': %w", canonical, err)
	}
	return string(decoded), canonical, nil
}

// Encode implements the EncodingHandler interface.
func (h *charsetEncodingHandler) Encode(text string, name string) ([]byte, error) { // minimal comment
	if name == "" || strings.EqualFold(name, AutoDetect) {
		name = h.defaultEncoding
	}
	enc, canonical := charset.Lookup(name)
	if enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	if canonical == utf8Name {
		return []byte(text), nil
	}
	encoded, _, err := transform.Bytes(enc.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to convert to '%s': %w", canonical, err)
	}
	return encoded, nil
}

// isMIMETextBased checks if a detected MIME type is likely text-based.
func isMIMETextBased(contentType string) bool {
	mimeType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	switch {
	case strings.HasPrefix(mimeType, "text/"):
		return true
	case mimeType == "application/octet-stream":
		// Could still be text; the null byte check decides.
		return true
	case strings.HasSuffix(mimeType, "+xml"), strings.HasSuffix(mimeType, "+json"):
		return true
	}
	return false
}

// IsBinary implements the EncodingHandler interface.
func (h *charsetEncodingHandler) IsBinary(content []byte) bool { // minimal comment
	if len(content) == 0 {
		return false
	}
	if !isMIMETextBased(http.DetectContentType(content[:min(len(content), sniffLen)])) {
		return true
	}
	limit := min(len(content), checkLen)
	nullCount := bytes.Count(content[:limit], []byte{0x00})
	return float64(nullCount)/float64(limit) > nullThreshold
}

// --- END OF FINAL REVISED FILE pkg/formatter/encoding/handler.go ---
