package analysis

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/teslashibe/framelens/pkg/inference"
)

var dataURIPrefix = regexp.MustCompile(`^data:([\w.+-]+/[\w.+-]+);base64,`)

// StripDataURI removes a leading "data:<mime>;base64," prefix and returns the
// remaining payload together with the MIME token found in the prefix.
// A string without the prefix is returned unchanged with an empty MIME type,
// so stripping twice is the same as stripping once.
func StripDataURI(s string) (payload, mimeType string) {
	m := dataURIPrefix.FindStringSubmatchIndex(s)
	if m == nil {
		return s, ""
	}
	return s[m[1]:], s[m[2]:m[3]]
}

// DecodeImage decodes a base64 image payload, with or without a data URI
// prefix. Padding is optional and embedded whitespace is ignored.
func DecodeImage(s string) ([]byte, error) {
	payload, _ := StripDataURI(s)
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

// DetectMIMEType picks the MIME type declared to the model. An explicit
// type wins, then the data URI token, then the type sniffed from the bytes.
// Anything that is not an image type falls through to inference.DefaultMIMEType.
func DetectMIMEType(explicit, fromURI string, data []byte) string {
	for _, m := range []string{explicit, fromURI} {
		m = strings.ToLower(strings.TrimSpace(m))
		if strings.HasPrefix(m, "image/") {
			return m
		}
	}
	if sniffed := mimetype.Detect(data).String(); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return inference.DefaultMIMEType
}
