package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotAnImage is returned by DecodeImage for data that is not a known image type.
var ErrNotAnImage = errors.New("data is not an image")

// DecodeImage sniffs the type of encoded image data and decodes it.
//
// Parameters:
//   - data: the encoded image
//
// Returns:
//   - image.Image: the decoded image
//   - string: the detected MIME type
//   - error: ErrNotAnImage for unknown data, or the decoder error
func DecodeImage(data []byte) (image.Image, string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(data) {
		return nil, "", ErrNotAnImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, kind.MIME.Value, fmt.Errorf("%s: %w", kind.MIME.Value, err)
	}
	return img, kind.MIME.Value, nil
}

// FitImage downscales img so neither side exceeds maxSize, keeping the aspect ratio.
// Images that already fit, and a maxSize of 0, return img unchanged.
//
// Parameters:
//   - img: the source image
//   - maxSize: the largest allowed width or height
//
// Returns:
//   - image.Image: the fitted image
func FitImage(img image.Image, maxSize int) image.Image {
	size := img.Bounds().Size()
	if maxSize <= 0 || (size.X <= maxSize && size.Y <= maxSize) {
		return img
	}
	w, h := maxSize, maxSize
	if size.X > size.Y {
		h = max(1, size.Y*maxSize/size.X)
	} else {
		w = max(1, size.X*maxSize/size.Y)
	}
	return transform.Resize(img, w, h, transform.Linear)
}
