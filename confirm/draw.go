package confirm

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	crosshairSize = 20
	circleRadius  = 10
	strokeWidth   = 3
)

var markerColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// DrawMarker returns a copy of the screenshot with a crosshair, a bounding
// circle, and a "label: (x, y)" text at the detected location. The input
// image is not modified.
func DrawMarker(img image.Image, x, y int, label string) *image.RGBA {
	out := toRGBA(img)

	drawHLine(out, x-crosshairSize, x+crosshairSize, y, markerColor)
	drawVLine(out, x, y-crosshairSize, y+crosshairSize, markerColor)
	drawCircle(out, x, y, circleRadius, markerColor)
	drawText(out, fmt.Sprintf("%s: (%d, %d)", label, x, y), x+15, y-25, markerColor)

	return out
}

func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}

func setPx(img *image.RGBA, x, y int, c color.Color) {
	if p := image.Pt(x, y); p.In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

func drawHLine(img *image.RGBA, x1, x2, y int, c color.Color) {
	for x := x1; x <= x2; x++ {
		for t := -strokeWidth / 2; t <= strokeWidth/2; t++ {
			setPx(img, x, y+t, c)
		}
	}
}

func drawVLine(img *image.RGBA, x, y1, y2 int, c color.Color) {
	for y := y1; y <= y2; y++ {
		for t := -strokeWidth / 2; t <= strokeWidth/2; t++ {
			setPx(img, x+t, y, c)
		}
	}
}

// drawCircle paints an outline of the given radius by testing distances in
// the bounding square; slow but the marker is tiny.
func drawCircle(img *image.RGBA, cx, cy, r int, c color.Color) {
	rOuter := float64(r) + float64(strokeWidth)/2
	rInner := float64(r) - float64(strokeWidth)/2
	for dy := -r - strokeWidth; dy <= r+strokeWidth; dy++ {
		for dx := -r - strokeWidth; dx <= r+strokeWidth; dx++ {
			d2 := float64(dx*dx + dy*dy)
			if d2 >= rInner*rInner && d2 <= rOuter*rOuter {
				setPx(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func drawText(img *image.RGBA, text string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
