package visualizer

import (
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Black is the canvas background.
var Black = colorful.Color{}

// Canvas is an RGB raster drawn to the terminal with half-block cells, two
// pixels per cell stacked vertically.
type Canvas struct {
	width, height int
	pix           []colorful.Color
}

// NewCanvas returns a black canvas. Height is rounded up to an even number
// of pixels.
func NewCanvas(width, height int) *Canvas {
	width, height = max(width, 1), max(height, 2)
	height += height % 2
	return &Canvas{
		width:  width,
		height: height,
		pix:    make([]colorful.Color, width*height),
	}
}

// FromImage copies img into a new canvas of the same size.
func FromImage(img image.Image) *Canvas {
	b := img.Bounds()
	c := NewCanvas(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			col, _ := colorful.MakeColor(img.At(b.Min.X+x, b.Min.Y+y))
			c.Set(x, y, col)
		}
	}
	return c
}

// Width returns the width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the height in pixels.
func (c *Canvas) Height() int { return c.height }

// At returns the pixel at (x, y), black outside the canvas.
func (c *Canvas) At(x, y int) colorful.Color {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return Black
	}
	return c.pix[y*c.width+x]
}

// Set writes a pixel. Writes outside the canvas are dropped.
func (c *Canvas) Set(x, y int, col colorful.Color) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.pix[y*c.width+x] = col
}

// Blend composites col over the pixel with the given alpha.
func (c *Canvas) Blend(x, y int, col colorful.Color, alpha float64) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	i := y*c.width + x
	c.pix[i] = c.pix[i].BlendRgb(col, alpha)
}

// Fade composites black with alpha over the whole canvas.
func (c *Canvas) Fade(alpha float64) {
	k := 1 - alpha
	for i, p := range c.pix {
		c.pix[i] = colorful.Color{R: p.R * k, G: p.G * k, B: p.B * k}
	}
}

// Clear paints the canvas black.
func (c *Canvas) Clear() {
	clear(c.pix)
}

// Line strokes a segment from (x1, y1) to (x2, y2). color maps the position
// along the segment, 0 at the start and 1 at the end, to a pixel color.
func (c *Canvas) Line(x1, y1, x2, y2 float64, width float64, color func(t float64) colorful.Color) {
	length := math.Hypot(x2-x1, y2-y1)
	steps := max(int(math.Ceil(length*2)), 1)
	half := max(width/2, 0.5)

	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := x1 + (x2-x1)*t
		y := y1 + (y2-y1)*t
		col := color(t)
		c.dot(x, y, half, col)
	}
}

// dot fills the pixels within radius r of (x, y).
func (c *Canvas) dot(x, y, r float64, col colorful.Color) {
	for py := int(math.Floor(y - r)); py <= int(math.Floor(y+r)); py++ {
		for px := int(math.Floor(x - r)); px <= int(math.Floor(x+r)); px++ {
			dx := float64(px) + 0.5 - x
			dy := float64(py) + 0.5 - y
			if dx*dx+dy*dy <= r*r+0.25 {
				c.Set(px, py, col)
			}
		}
	}
}

// Ring blends a circle outline of radius r centered at (cx, cy).
func (c *Canvas) Ring(cx, cy, r float64, col colorful.Color, alpha float64) {
	steps := max(int(2*math.Pi*r*2), 8)
	seen := make(map[[2]int]bool, steps)
	for s := 0; s < steps; s++ {
		a := 2 * math.Pi * float64(s) / float64(steps)
		x := int(math.Floor(cx + math.Cos(a)*r))
		y := int(math.Floor(cy + math.Sin(a)*r))
		if seen[[2]int{x, y}] {
			continue
		}
		seen[[2]int{x, y}] = true
		c.Blend(x, y, col, alpha)
	}
}

// Render draws the canvas as lines of upper half-block cells. The top
// pixel of each cell is the foreground and the bottom pixel the background.
func (c *Canvas) Render() string {
	var b strings.Builder
	for y := 0; y < c.height; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < c.width; x++ {
			top, bottom := c.At(x, y), c.At(x, y+1)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.Clamped().Hex())).
				Background(lipgloss.Color(bottom.Clamped().Hex()))
			b.WriteString(style.Render("▀"))
		}
	}
	return b.String()
}
