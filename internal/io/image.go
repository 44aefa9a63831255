package ioutils

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// ImageService processes cover art before it is embedded into tags.
type ImageService struct{}

// NewImageService creates an ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// PrepareCover resizes cover art to fit within maxSize pixels on its
// longest edge, preserving aspect ratio, and re-encodes it as JPEG.
// Art already within bounds is re-encoded without scaling.
func (s *ImageService) PrepareCover(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if maxSize > 0 && (width > maxSize || height > maxSize) {
		if width >= height {
			height = height * maxSize / width
			width = maxSize
		} else {
			width = width * maxSize / height
			height = maxSize
		}
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
