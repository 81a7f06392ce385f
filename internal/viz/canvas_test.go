package viz

import (
	"strings"
	"testing"
)

func TestCanvas_Blank(t *testing.T) {
	c := NewCanvas(4, 2)
	lines := strings.Split(c.String(), "\n")
	if len(lines) != 2 {
		t.Fatalf("canvas renders %d lines, want 2", len(lines))
	}
	for _, line := range lines {
		for _, r := range line {
			if r != 0x2800 {
				t.Fatalf("blank canvas contains %q", r)
			}
		}
	}
}

func TestCanvas_SetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	if c.grid[0][0] == 0x2800 {
		t.Error("Set(0,0) left the cell blank")
	}

	// out-of-range points are dropped, not faulted
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(8, 0)
	c.Set(0, 8)

	c.Clear()
	if c.grid[0][0] != 0x2800 {
		t.Error("Clear did not blank the cell")
	}
}

func TestCanvas_SubPixelPacking(t *testing.T) {
	c := NewCanvas(2, 1)
	// all eight sub-pixels of one cell light all eight dots
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			c.Set(x, y)
		}
	}
	if c.grid[0][0] != 0x28FF {
		t.Errorf("full cell = %#x, want 0x28FF", c.grid[0][0])
	}
	if c.grid[0][1] != 0x2800 {
		t.Error("neighboring cell was touched")
	}
}

func TestCanvas_Line(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Line(0, 0, 19, 19)

	lit := 0
	for _, row := range c.grid {
		for _, cell := range row {
			if cell != 0x2800 {
				lit++
			}
		}
	}
	if lit < 5 {
		t.Errorf("diagonal line lit only %d cells", lit)
	}
	// endpoints are on
	if c.grid[0][0] == 0x2800 {
		t.Error("line start not lit")
	}
	if c.grid[4][9] == 0x2800 {
		t.Error("line end not lit")
	}
}

func TestCanvas_Mark(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Mark(4, 4, '◎')
	if c.grid[1][2] != '◎' {
		t.Error("Mark missed its cell")
	}
	c.Mark(-2, 0, '!')
	c.Mark(100, 100, '!')
	if strings.ContainsRune(c.String(), '!') {
		t.Error("out-of-range Mark landed on the canvas")
	}
}
