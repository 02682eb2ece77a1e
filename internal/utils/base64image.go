package utils

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid base64 image data URI")

var dataURIPattern = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,`)

// DecodeBase64Image decodes a `data:image/<ext>;base64,<payload>` string
// into the raw image bytes and the file extension (without dot).
func DecodeBase64Image(dataURI string) ([]byte, string, error) {
	match := dataURIPattern.FindStringSubmatch(dataURI)
	if match == nil {
		return nil, "", ErrInvalidDataURI
	}

	ext := strings.ToLower(match[1])
	if ext == "jpeg" {
		ext = "jpg"
	}

	payload := dataURI[len(match[0]):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidDataURI
	}
	if len(data) == 0 {
		return nil, "", ErrInvalidDataURI
	}
	return data, ext, nil
}
