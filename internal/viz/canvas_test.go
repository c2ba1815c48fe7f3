package viz

import (
	"strings"
	"testing"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}
	c.Set(1, 3)
	if c.Grid[0][0] != 0x2801|0x80 {
		t.Errorf("expected dots 1 and 8, got %U", c.Grid[0][0])
	}

	// out of range writes are dropped
	c.Set(-1, 0)
	c.Set(8, 0)
	c.Set(0, 8)
	if c.IsSet(-1, 0) || c.IsSet(8, 0) {
		t.Error("out of range pixels reported as set")
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("clear left a pixel set")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	for _, l := range lines {
		if len([]rune(l)) != 3 {
			t.Errorf("expected 3 cells, got %q", l)
		}
	}
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(10, 4)
	c.DrawLine(0, 2, 7, 2)
	for x := 0; x <= 7; x++ {
		if !c.IsSet(x, 2) {
			t.Errorf("pixel (%d, 2) not set", x)
		}
	}
	if c.IsSet(8, 2) {
		t.Error("line overshot its end point")
	}

	c.Clear()
	c.DrawLine(0, 0, 5, 5)
	for i := 0; i <= 5; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("diagonal pixel (%d, %d) not set", i, i)
		}
	}
}

func TestDrawCircle(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCircle(10, 10, 4)

	for _, p := range [][2]int{{14, 10}, {6, 10}, {10, 14}, {10, 6}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("expected %v on the circle", p)
		}
	}
	if c.IsSet(10, 10) {
		t.Error("circle outline should not fill the center")
	}
}

func TestDrawRect(t *testing.T) {
	c := NewCanvas(10, 4)
	c.DrawRect(2, 3, 9, 8)
	for _, p := range [][2]int{{2, 3}, {9, 3}, {9, 8}, {2, 8}, {5, 3}, {2, 6}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("expected %v on the rectangle", p)
		}
	}
	if c.IsSet(5, 5) {
		t.Error("rectangle outline should not fill the inside")
	}
}

func TestFitViewport(t *testing.T) {
	v := FitViewport(0, 0, 10, 10, 21, 41)
	if v.Scale != 2 {
		t.Fatalf("expected scale 2, got %g", v.Scale)
	}
	if x, y := v.Project(10, 10); x != 20 || y != 20 {
		t.Errorf("expected (20, 20), got (%d, %d)", x, y)
	}
	if x, y := v.Project(0, 0); x != 0 || y != 0 {
		t.Errorf("expected origin at (0, 0), got (%d, %d)", x, y)
	}
	if l := v.Length(3); l != 6 {
		t.Errorf("expected length 6, got %d", l)
	}

	degenerate := FitViewport(5, 5, 5, 5, 11, 11)
	if degenerate.Scale != 10 {
		t.Errorf("expected unit span for a point, got scale %g", degenerate.Scale)
	}
}
