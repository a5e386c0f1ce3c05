package layout

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/tsawler/strata/model"
)

// minOCRHeight is the crop height, in pixels, below which the sub-image is
// upscaled before recognition. Small crops recognize poorly at native size.
const minOCRHeight = 48

// maxOCRScale caps the upscale factor for tiny regions
const maxOCRScale = 4.0

// pageCrop is a region sub-image together with the transform that maps
// recognized boxes back into page coordinates
type pageCrop struct {
	img     image.Image
	offsetX float64
	offsetY float64
	scale   float64
}

// cropRegion extracts the sub-image under box, upscaling it when it is too
// small for reliable recognition. Returns nil if the box has no pixel overlap
// with the image.
func cropRegion(img image.Image, box model.BBox) *pageCrop {
	bounds := img.Bounds()
	rect := image.Rect(
		int(math.Floor(box.Left())),
		int(math.Floor(box.Top())),
		int(math.Ceil(box.Right())),
		int(math.Ceil(box.Bottom())),
	).Intersect(bounds)
	if rect.Empty() {
		return nil
	}

	scale := 1.0
	if rect.Dy() < minOCRHeight {
		scale = math.Min(maxOCRScale, float64(minOCRHeight)/float64(rect.Dy()))
	}

	dst := image.NewRGBA(image.Rect(0, 0,
		int(float64(rect.Dx())*scale),
		int(float64(rect.Dy())*scale)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Src, nil)

	return &pageCrop{
		img:     dst,
		offsetX: float64(rect.Min.X),
		offsetY: float64(rect.Min.Y),
		scale:   scale,
	}
}

// toPage maps a box in the crop's coordinate space back to page coordinates
func (c *pageCrop) toPage(b model.BBox) model.BBox {
	return model.BBox{
		X:      b.X/c.scale + c.offsetX,
		Y:      b.Y/c.scale + c.offsetY,
		Width:  b.Width / c.scale,
		Height: b.Height / c.scale,
	}
}
