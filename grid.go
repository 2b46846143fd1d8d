package gpuwave

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid is a fixed two-dimensional arrangement of independent invocation
// slots. One dispatch evaluates the kernel once per slot, so the grid's
// capacity is the number of samples computed per block.
type Grid struct {
	Width  int
	Height int
}

// DefaultGrid is 512x512 (262144 samples per block).
var DefaultGrid = Grid{Width: 512, Height: 512}

// Capacity returns the number of invocation slots, Width*Height.
func (g Grid) Capacity() int {
	return g.Width * g.Height
}

// Validate reports ErrInvalidGrid when the grid has no slots.
func (g Grid) Validate() error {
	if g.Width < 1 || g.Height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGrid, g.Width, g.Height)
	}
	return nil
}

// Index maps cell (x, y) to its row-major invocation coordinate.
func (g Grid) Index(x, y int) int {
	return x + y*g.Width
}

// Coord maps an invocation coordinate back to its cell.
func (g Grid) Coord(k int) (x, y int) {
	return k % g.Width, k / g.Width
}

// String returns "WxH".
func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// ParseGrid parses "WxH" (e.g. "512x512"). Anything besides the two
// decimal dimensions is rejected.
func ParseGrid(s string) (Grid, error) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return Grid{}, fmt.Errorf("%w: parse %q: want WxH", ErrInvalidGrid, s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return Grid{}, fmt.Errorf("%w: parse %q: %v", ErrInvalidGrid, s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return Grid{}, fmt.Errorf("%w: parse %q: %v", ErrInvalidGrid, s, err)
	}
	g := Grid{Width: w, Height: h}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}
