package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	"golang.org/x/image/draw"
)

// PlaceholderColor is the fill of the placeholder cover (#6366f1).
var PlaceholderColor = color.RGBA{R: 0x63, G: 0x66, B: 0xf1, A: 0xff}

// ImageService prepares cover art for display in the terminal.
//
// Covers are scaled down to a few dozen pixels and drawn with half-block
// characters, so ImageService only needs to decode and scale.
//
// Example usage:
//
//	svc := NewImageService()
//
//	// Embedded artwork from the file tags, or nil
//	cover, _ := svc.Cover(ctx, track.Artwork, 16, 16)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Cover decodes artwork and scales it to fit within maxWidth×maxHeight,
// preserving the aspect ratio. Empty data yields the placeholder cover.
//
// The Catmull-Rom algorithm is used for high-quality resizing.
func (s *ImageService) Cover(ctx context.Context, data []byte, maxWidth, maxHeight int) (*image.RGBA, error) {
	if len(data) == 0 {
		return Placeholder(maxWidth, maxHeight), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst, nil
}

// fitWithin scales width×height down to fit maxWidth×maxHeight, keeping
// the aspect ratio. Images are scaled up too, since terminal covers are
// tiny and should fill their box.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return maxWidth, maxHeight
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		return max(1, int(float64(maxHeight)*ratio)), maxHeight
	}
	// Width is the limiting factor
	return maxWidth, max(1, int(float64(maxWidth)/ratio))
}

// Placeholder draws the placeholder cover: an indigo square with a white
// eighth note in the middle.
func Placeholder(width, height int) *image.RGBA {
	width, height = max(width, 1), max(height, 1)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{PlaceholderColor}, image.Point{}, draw.Src)

	if width < 6 || height < 6 {
		return img
	}

	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	cx, cy := float64(width)/2, float64(height)/2
	unit := float64(min(width, height)) / 10

	// Head: a filled ellipse left of and below the center.
	hx, hy := cx-unit, cy+1.5*unit
	rx, ry := 1.3*unit, unit
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := (float64(x) + 0.5 - hx) / rx
			dy := (float64(y) + 0.5 - hy) / ry
			if dx*dx+dy*dy <= 1 {
				img.SetRGBA(x, y, white)
			}
		}
	}

	// Stem and flag.
	stemX := int(hx + rx - 0.5)
	top := int(cy - 2.5*unit)
	for y := top; y <= int(hy); y++ {
		img.SetRGBA(stemX, y, white)
	}
	for i := 0; i <= int(unit*1.2); i++ {
		img.SetRGBA(stemX+1+i, top+i, white)
	}

	return img
}
