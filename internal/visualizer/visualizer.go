package visualizer

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Geometry on the logical canvas. Drawing is scaled to the raster.
const (
	LogicalSize  = 400.0
	BaseRadius   = 120.0
	BarLength    = 80.0
	BarWidth     = 3.0
	CenterRadius = BaseRadius - 10
	FadeAlpha    = 0.1
	RingAlpha    = 0.1
)

// Source provides frequency bins in 0..255.
type Source interface {
	ByteFrequencyData(dst []byte) []byte
}

// Visualizer draws frequency bins as radial bars around a circle, leaving
// a fading trail of previous frames.
type Visualizer struct {
	src    Source
	canvas *Canvas
	bins   []byte
}

// New returns a visualizer drawing into a width×height pixel raster. src
// may be nil, in which case frames draw nothing.
func New(src Source, width, height int) *Visualizer {
	return &Visualizer{
		src:    src,
		canvas: NewCanvas(width, height),
	}
}

// Resize replaces the raster. The trail is lost.
func (v *Visualizer) Resize(width, height int) {
	if width == v.canvas.Width() && height+height%2 == v.canvas.Height() {
		return
	}
	v.canvas = NewCanvas(width, height)
}

// Canvas returns the raster.
func (v *Visualizer) Canvas() *Canvas {
	return v.canvas
}

// Frame reads the source and draws one frame.
func (v *Visualizer) Frame() {
	if v.src == nil {
		return
	}
	v.bins = v.src.ByteFrequencyData(v.bins)
	Draw(v.canvas, v.bins)
}

// Render returns the raster as terminal text.
func (v *Visualizer) Render() string {
	return v.canvas.Render()
}

// Draw fades the canvas and draws one frame of bins.
func Draw(c *Canvas, bins []byte) {
	c.Fade(FadeAlpha)

	scale := math.Min(float64(c.Width()), float64(c.Height())) / LogicalSize
	cx, cy := float64(c.Width())/2, float64(c.Height())/2
	n := len(bins)

	for i, v := range bins {
		if v == 0 {
			continue
		}
		seg := Segment(i, n, v)
		from, to := seg.Colors()
		c.Line(
			cx+seg.X1*scale, cy+seg.Y1*scale,
			cx+seg.X2*scale, cy+seg.Y2*scale,
			BarWidth*scale,
			func(t float64) colorful.Color { return from.BlendRgb(to, t) },
		)
	}

	c.Ring(cx, cy, CenterRadius*scale, colorful.Color{R: 1, G: 1, B: 1}, RingAlpha)
}

// Bar is one radial segment in logical coordinates relative to the center.
type Bar struct {
	X1, Y1, X2, Y2 float64
	Hue            float64
}

// Segment computes the bar for bin i of n with value v.
func Segment(i, n int, v byte) Bar {
	height := float64(v) / 255 * BarLength
	angle := float64(i) / float64(n) * 2 * math.Pi
	cos, sin := math.Cos(angle), math.Sin(angle)
	return Bar{
		X1:  cos * BaseRadius,
		Y1:  sin * BaseRadius,
		X2:  cos * (BaseRadius + height),
		Y2:  sin * (BaseRadius + height),
		Hue: float64(i) / float64(n) * 360,
	}
}

// Colors returns the gradient ends: hsl(hue, 70%, 50%) at the base and
// hsl(hue, 70%, 70%) at the tip.
func (b Bar) Colors() (colorful.Color, colorful.Color) {
	return colorful.Hsl(b.Hue, 0.7, 0.5), colorful.Hsl(b.Hue, 0.7, 0.7)
}

// Length returns the bar length in logical units.
func (b Bar) Length() float64 {
	return math.Hypot(b.X2-b.X1, b.Y2-b.Y1)
}
