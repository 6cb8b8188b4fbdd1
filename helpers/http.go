package helpers

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// DecodeBody converts a response body to UTF-8 using the Content-Type header and the
// body itself to detect the encoding. Without a declared charset, valid UTF-8 is kept
// as is since JSON is UTF-8 by default.
func DecodeBody(body []byte, contentType string) ([]byte, error) {
	if !declaresCharset(contentType) && utf8.Valid(body) {
		return bytes.TrimPrefix(body, utf8BOM), nil
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(body, contentType)

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return bytes.TrimPrefix(body, utf8BOM), nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return buf.Bytes(), nil
}

func declaresCharset(contentType string) bool {
	_, params, err := mime.ParseMediaType(contentType)
	return err == nil && params["charset"] != ""
}

// IsSuccessStatus reports whether an HTTP status code is in the 2xx range
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
