package filesystem

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

const utf8Label = "utf-8"

// charsetSample bounds how much of a file feeds charset detection.
const charsetSample = 64 * 1024

// DetectCharset returns the lowercased best-guess charset of data. Valid
// UTF-8 short-circuits detection.
func DetectCharset(data []byte) string {
	if utf8.Valid(data) {
		return utf8Label
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return utf8Label
	}
	return strings.ToLower(result.Charset)
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of a
// sample.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}

// decodeText converts file bytes to a UTF-8 string, reporting the source
// encoding. Undecodable input is returned as-is.
func decodeText(data []byte) (string, string) {
	label := DetectCharset(data)
	if label == utf8Label {
		return string(data), label
	}

	r, err := charset.NewReader(bytes.NewReader(data), label)
	if err != nil {
		return string(data), label
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(data), label
	}
	return string(decoded), label
}

// isText reports whether a detected MIME type carries text.
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	s := mtype.String()
	return strings.HasPrefix(s, "text/") ||
		strings.HasPrefix(s, "application/json") ||
		strings.HasPrefix(s, "application/xml") ||
		strings.HasPrefix(s, "application/javascript")
}
