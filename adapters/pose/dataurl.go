package pose

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// ErrMalformedImage is returned for payloads that are not base64 images.
var ErrMalformedImage = errors.New("malformed image payload")

// DecodeDataURL accepts "data:image/...;base64,<data>" or bare base64.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrMalformedImage
	}
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, ErrMalformedImage
		}
		s = payload
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(data) == 0 {
		return nil, ErrMalformedImage
	}
	return data, nil
}

// EncodeDataURL wraps an encoded image as a data URL with a sniffed MIME type.
func EncodeDataURL(image []byte) string {
	return "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}
