package inference

import "encoding/base64"

// DefaultMIMEType is declared for images whose type is unknown.
const DefaultMIMEType = "image/png"

// EncodeBase64 encodes raw image bytes to standard base64.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURI builds a "data:<mime>;base64,<payload>" URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeOrDefault(mimeType) + ";base64," + EncodeBase64(data)
}

func mimeOrDefault(mimeType string) string {
	if mimeType == "" {
		return DefaultMIMEType
	}
	return mimeType
}
