package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots, offset from U+2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Set lights the sub-pixel at (x, y). Out of range points are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine is Bresenham between two sub-pixels.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawTrack plots (x, y) pairs scaled to fill the canvas, north up.
func (c *Canvas) DrawTrack(xs, ys []float64) {
	n := min(len(xs), len(ys))
	if n == 0 {
		return
	}
	minX, maxX := bounds(xs[:n])
	minY, maxY := bounds(ys[:n])
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	w, h := c.Dots()
	scale := float64(min(w, h)-1) / span
	px := func(i int) (int, int) {
		return int((xs[i] - minX) * scale), h - 1 - int((ys[i]-minY)*scale)
	}
	x0, y0 := px(0)
	c.Set(x0, y0)
	for i := 1; i < n; i++ {
		x1, y1 := px(i)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
}

// DrawHorizon draws the horizon line for a bank and pitch in degrees.
// Ten degrees of pitch move the line a quarter of the height.
func (c *Canvas) DrawHorizon(phiDeg, thetaDeg float64) {
	w, h := c.Dots()
	cx, cy := float64(w)/2, float64(h)/2+thetaDeg/10*float64(h)/4
	phi := phiDeg * math.Pi / 180
	half := float64(w)
	dx, dy := math.Cos(phi)*half, math.Sin(phi)*half
	c.DrawLine(int(cx-dx), int(cy-dy), int(cx+dx), int(cy+dy))
	// fixed aircraft reference
	c.DrawLine(w/2-4, h/2, w/2-1, h/2)
	c.DrawLine(w/2+1, h/2, w/2+4, h/2)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	return lo, hi
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
