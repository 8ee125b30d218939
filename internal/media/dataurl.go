package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// MaxImageSize is the largest image accepted for upload
const MaxImageSize = 10 << 20

// ErrNotImage is returned when the uploaded content is not an image
var ErrNotImage = errors.New("file is not an image")

// ErrTooLarge is returned when the uploaded content exceeds MaxImageSize
var ErrTooLarge = fmt.Errorf("image is larger than %d MB", MaxImageSize>>20)

// EncodeDataURL reads an image and encodes it as a base64 data URL.
// The media type is sniffed from the content, not taken from the file name.
func EncodeDataURL(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", ErrTooLarge
	}
	if len(data) == 0 {
		return "", ErrNotImage
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// FormImage encodes the file uploaded in form field "field" as a data URL.
// An absent file, or a form that is not multipart, yields an empty string and no error.
func FormImage(r *http.Request, field string) (string, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	return EncodeDataURL(file)
}

// IsImageDataURL reports whether s is an inline image data URL
func IsImageDataURL(s string) bool {
	return strings.HasPrefix(s, "data:image/")
}
