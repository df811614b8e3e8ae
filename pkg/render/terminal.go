package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/opd-ai/go-leaksim/pkg/engine"
	"github.com/opd-ai/go-leaksim/pkg/geometry"
)

// Cell symbols used by TerminalRenderer
const (
	SymbolWall         = '#'
	SymbolPipe         = '='
	SymbolParticle     = '.'
	SymbolLeak         = 'L'
	SymbolDetectedLeak = '!'
	SymbolDrone        = 'D'
)

// TerminalRenderer provides a simple ASCII-based rendering for terminals
type TerminalRenderer struct {
	out       io.Writer
	width     int
	height    int
	buffer    [][]rune
	scale     float64 // world units per cell
	centerPos geometry.Point
}

// NewTerminalRenderer creates a new terminal renderer with the specified dimensions
func NewTerminalRenderer(out io.Writer, width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	r := &TerminalRenderer{
		out:    out,
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
	}
	r.Clear()
	return r
}

// SetCenter sets the center position of the view
func (r *TerminalRenderer) SetCenter(pos geometry.Point) {
	r.centerPos = pos
}

// Fit centres the view on bounds and picks the smallest scale that shows
// all of it
func (r *TerminalRenderer) Fit(bounds geometry.Rectangle) {
	r.centerPos = bounds.Center()
	scale := max(bounds.Width/float64(max(r.width-1, 1)), bounds.Height/float64(max(r.height-1, 1)))
	if scale > 0 {
		r.scale = scale
	}
}

// worldToScreen converts world coordinates to screen coordinates
func (r *TerminalRenderer) worldToScreen(pos geometry.Point) (int, int) {
	screenX := int((pos.X-r.centerPos.X)/r.scale + float64(r.width)/2)
	screenY := int((pos.Y-r.centerPos.Y)/r.scale + float64(r.height)/2)
	return screenX, screenY
}

// Clear blanks the buffer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
}

func (r *TerminalRenderer) plot(x, y int, symbol rune) {
	if x >= 0 && x < r.width && y >= 0 && y < r.height {
		r.buffer[y][x] = symbol
	}
}

func (r *TerminalRenderer) drawPoint(p geometry.Point, symbol rune) {
	x, y := r.worldToScreen(p)
	r.plot(x, y, symbol)
}

// drawLine rasterises a segment with Bresenham's algorithm
func (r *TerminalRenderer) drawLine(v geometry.Vector, symbol rune) {
	x0, y0 := r.worldToScreen(v.Start)
	x1, y1 := r.worldToScreen(v.End)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		r.plot(x0, y0, symbol)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Draw rasterises state into the buffer. Later layers overwrite earlier
// ones: walls, pipes, particles, emitters, then the drone.
func (r *TerminalRenderer) Draw(state engine.State) {
	r.Clear()
	for _, w := range state.Walls {
		r.drawLine(w, SymbolWall)
	}
	for _, p := range state.Pipes {
		r.drawLine(p, SymbolPipe)
	}
	for _, l := range state.Leaks {
		for _, p := range l.Particles {
			r.drawPoint(p.Position, SymbolParticle)
		}
	}
	for _, l := range state.Leaks {
		symbol := SymbolLeak
		if l.Detected {
			symbol = SymbolDetectedLeak
		}
		r.drawPoint(l.Emitter, symbol)
	}
	r.drawPoint(state.Drone.Position, SymbolDrone)
}

// Frame returns the bordered buffer as text
func (r *TerminalRenderer) Frame() string {
	var sb strings.Builder
	border := "+" + strings.Repeat("-", r.width) + "+\n"
	sb.WriteString(border)
	for y := range r.buffer {
		sb.WriteByte('|')
		sb.WriteString(string(r.buffer[y]))
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

// Render implements Renderer. It redraws the terminal in place.
func (r *TerminalRenderer) Render(state engine.State) error {
	r.Draw(state)
	_, err := fmt.Fprintf(r.out, "\033[H\033[2J%stick %d  leaks %d  particles %d\n",
		r.Frame(), state.Tick, len(state.Leaks), state.ParticleCount())
	return err
}
