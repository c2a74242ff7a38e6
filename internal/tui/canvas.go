package tui

import (
	"math"
	"strings"
)

// Braille patterns give each cell 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Braille pixel grid of Width x Height cells, that is
// 2*Width x 4*Height dots.
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

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Set turns on the dot at (x, y) in dot coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
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

// FillCircle sets every dot within r of (cx, cy).
func (c *Canvas) FillCircle(cx, cy, r int) {
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				c.Set(cx+x, cy+y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

// Bob returns the dot position of the bob for angleDeg, with the pivot at
// the top centre and the rod filling most of the height.
func (c *Canvas) Bob(angleDeg float64) (pivotX, pivotY, x, y int) {
	pivotX, pivotY = c.Width, 1
	length := float64(c.Height*4) * 0.8
	rad := angleDeg * math.Pi / 180
	x = pivotX + int(math.Round(length*math.Sin(rad)))
	y = pivotY + int(math.Round(length*math.Cos(rad)))
	return pivotX, pivotY, x, y
}

// DrawPendulum draws the rod and bob at angleDeg, plus a dot for each
// recent angle in trail.
func (c *Canvas) DrawPendulum(angleDeg float64, trail []float64) {
	for _, a := range trail {
		_, _, tx, ty := c.Bob(a)
		c.Set(tx, ty)
	}
	px, py, bx, by := c.Bob(angleDeg)
	c.DrawLine(px-2, py-1, px+2, py-1)
	c.DrawLine(px, py, bx, by)
	c.FillCircle(bx, by, 2)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
