// Package visualizer renders the circular frequency visualizer.
//
// Every frame the canvas is darkened with 10% black, then each frequency
// bin is drawn as a radial bar starting at radius 120 on a 400×400 logical
// canvas, up to 80 units long, colored from hsl(h, 70%, 50%) to
// hsl(h, 70%, 70%) where h walks the color wheel. A faint ring of radius 110
// marks the center. The raster is printed with half-block characters.
//
//	vis := visualizer.New(engine.Analyser(), 48, 48)
//	vis.Frame()
//	fmt.Println(vis.Render())
package visualizer
