package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// blendPx composites c over the pixel at (x, y) using source-over with the
// straight-alpha layout of image.NRGBA.
func blendPx(img *image.NRGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Rect) {
		return
	}
	if c.A == 0 {
		return
	}
	i := img.PixOffset(x, y)
	a := int(c.A)
	inv := 255 - a
	img.Pix[i] = uint8((int(c.R)*a + int(img.Pix[i])*inv) / 255)
	img.Pix[i+1] = uint8((int(c.G)*a + int(img.Pix[i+1])*inv) / 255)
	img.Pix[i+2] = uint8((int(c.B)*a + int(img.Pix[i+2])*inv) / 255)
	if aOld := int(img.Pix[i+3]); aOld < 255 {
		img.Pix[i+3] = uint8(a + aOld*inv/255)
	}
}

// fillRect composites c over every pixel of r.
func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			blendPx(img, x, y, c)
		}
	}
}

// fillRoundedRect composites c over r, clipping the four corners to a
// quarter-circle of the given radius.
func fillRoundedRect(img *image.NRGBA, r image.Rectangle, radius int, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if inRounded(r, radius, x, y) {
				blendPx(img, x, y, c)
			}
		}
	}
}

// strokeRoundedRect draws a one-pixel outline of the rounded rectangle.
func strokeRoundedRect(img *image.NRGBA, r image.Rectangle, radius int, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if !inRounded(r, radius, x, y) {
				continue
			}
			edge := x == r.Min.X || x == r.Max.X-1 || y == r.Min.Y || y == r.Max.Y-1 ||
				!inRounded(r, radius, x-1, y) || !inRounded(r, radius, x+1, y) ||
				!inRounded(r, radius, x, y-1) || !inRounded(r, radius, x, y+1)
			if edge {
				blendPx(img, x, y, c)
			}
		}
	}
}

func inRounded(r image.Rectangle, radius, x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(r) {
		return false
	}
	cx, cy := x, y
	switch {
	case x < r.Min.X+radius && y < r.Min.Y+radius:
		cx, cy = r.Min.X+radius, r.Min.Y+radius
	case x >= r.Max.X-radius && y < r.Min.Y+radius:
		cx, cy = r.Max.X-radius-1, r.Min.Y+radius
	case x < r.Min.X+radius && y >= r.Max.Y-radius:
		cx, cy = r.Min.X+radius, r.Max.Y-radius-1
	case x >= r.Max.X-radius && y >= r.Max.Y-radius:
		cx, cy = r.Max.X-radius-1, r.Max.Y-radius-1
	default:
		return true
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}

// fillCircle composites c over a filled circle.
func fillCircle(img *image.NRGBA, cx, cy, radius int, c color.NRGBA) {
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				blendPx(img, x, y, c)
			}
		}
	}
}

// vline and hline draw one-pixel grid lines.
func vline(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	for y := y0; y < y1; y++ {
		blendPx(img, x, y, c)
	}
}

func hline(img *image.NRGBA, x0, x1, y int, c color.NRGBA) {
	for x := x0; x < x1; x++ {
		blendPx(img, x, y, c)
	}
}

// drawText renders s with the baseline at (x, y).
func drawText(img *image.NRGBA, face font.Face, x, y int, c color.NRGBA, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawTextCentered renders s horizontally centered on x.
func drawTextCentered(img *image.NRGBA, face font.Face, x, y int, c color.NRGBA, s string) {
	w := font.MeasureString(face, s)
	drawText(img, face, x-w.Round()/2, y, c, s)
}

// textWidth measures s in whole pixels.
func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Round()
}
