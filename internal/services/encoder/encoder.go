// Package encoder turns raw captures into the compressed frames that are streamed.
package encoder

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // registers decoder
	"image/jpeg"
	_ "image/png" // registers decoder

	"github.com/Egham-7/cloudlines/internal/models"
	"github.com/Egham-7/cloudlines/internal/utils"

	"github.com/anthonynsimon/bild/transform"
)

// Encoder resizes and compresses a raw image
type Encoder interface {
	Encode(raw []byte, width int) ([]byte, error)
	ContentType() string
}

// JPEGEncoder decodes PNG/JPEG/GIF input, scales it to the target width and
// re-encodes it as JPEG.
type JPEGEncoder struct {
	Quality int
	Filter  transform.ResampleFilter
}

func NewJPEGEncoder(cfg models.EncoderConfig) *JPEGEncoder {
	quality := cfg.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &JPEGEncoder{
		Quality: quality,
		Filter:  transform.Linear,
	}
}

func (e *JPEGEncoder) ContentType() string {
	return models.ContentTypeJPEG
}

// Encode scales raw to width keeping the aspect ratio. A width of zero, or one
// wider than the source, keeps the source size.
func (e *JPEGEncoder) Encode(raw []byte, width int) ([]byte, error) {
	if len(raw) == 0 {
		return nil, models.NewEncoderError("empty input", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, models.NewEncoderError("unable to decode capture", err)
	}

	img = Resize(img, width, e.Filter)

	buf := utils.Get()
	defer utils.Put(buf)

	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, models.NewEncoderError(fmt.Sprintf("unable to encode %s capture as jpeg", format), err)
	}

	// buf goes back to the pool; published frames must own their bytes
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// Resize scales img down to width, preserving the aspect ratio
func Resize(img image.Image, width int, filter transform.ResampleFilter) image.Image {
	bounds := img.Bounds()
	if width <= 0 || width >= bounds.Dx() || bounds.Dx() == 0 {
		return img
	}
	height := max(1, bounds.Dy()*width/bounds.Dx())
	return transform.Resize(img, width, height, filter)
}
